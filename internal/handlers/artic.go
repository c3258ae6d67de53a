// internal/handlers/artic.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/artic"
	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

// ArticHandler proxies the public artwork search API for the web client.
type ArticHandler struct {
	client *artic.Client
}

func NewArticHandler(client *artic.Client) *ArticHandler {
	return &ArticHandler{client: client}
}

// GET /api/artic/search
func (h *ArticHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(utils.DefaultPageLimit)))

	body, err := h.client.Search(c.Request.Context(), artic.SearchParams{
		Query: c.Query("q"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GET /api/artic/artworks/:id
func (h *ArticHandler) GetArtwork(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid artwork ID", nil)
		return
	}

	body, err := h.client.Artwork(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *ArticHandler) handleError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, artic.ErrInvalidArgs):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, artic.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		logrus.WithError(err).Warn("Artwork search upstream failed")
		utils.BadGatewayResponse(c, i18n.T(lang, i18n.KeySearchUnavailable))
	}
}
