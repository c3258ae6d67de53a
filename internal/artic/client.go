// internal/artic/client.go
package artic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/cache"
	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

const maxResponseSize = 2 << 20

var (
	ErrNotFound    = errors.New("artwork not found upstream")
	ErrUpstream    = errors.New("artwork search upstream error")
	ErrInvalidArgs = errors.New("invalid search arguments")
)

// Client proxies the public artwork search API. Bodies are passed through
// untouched; only successful responses are cached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	ttl        time.Duration
}

type SearchParams struct {
	Query string
	Page  int
	Limit int
}

// NewClient builds a client. A nil cache disables caching.
func NewClient(cfg config.ArticConfig, c cache.Cache) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		ttl:        time.Duration(cfg.CacheTTL) * time.Second,
	}
}

func (c *Client) Search(ctx context.Context, params SearchParams) (json.RawMessage, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("%w: q is required", ErrInvalidArgs)
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > utils.MaxPageLimit {
		params.Limit = utils.DefaultPageLimit
	}

	query := url.Values{}
	query.Set("q", params.Query)
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("fields", "id,title,artist_display,date_display,image_id,thumbnail")

	return c.get(ctx, "/artworks/search?"+query.Encode())
}

func (c *Client) Artwork(ctx context.Context, id int) (json.RawMessage, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidArgs)
	}
	return c.get(ctx, "/artworks/"+strconv.Itoa(id))
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	key := utils.CacheKey("artic", path)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logrus.WithError(err).Warn("Artwork cache read failed")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case !json.Valid(body):
		return nil, fmt.Errorf("%w: invalid json body", ErrUpstream)
	}

	if c.cache != nil && c.ttl > 0 {
		if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
			logrus.WithError(err).Warn("Artwork cache write failed")
		}
	}

	return body, nil
}
