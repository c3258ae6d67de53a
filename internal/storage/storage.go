// internal/storage/storage.go
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultMaxImageSize int64 = 5 * 1024 * 1024

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidKey      = errors.New("invalid object key")
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns the public address of an object.
	URL(key string) string
	Bucket() string
}

// Storage wraps an ObjectStorage backend and applies the image upload rules.
type Storage struct {
	backend      ObjectStorage
	maxImageSize int64
}

type UploadResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorage(backend ObjectStorage, maxImageSize int64) *Storage {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &Storage{backend: backend, maxImageSize: maxImageSize}
}

func (s *Storage) MaxImageSize() int64 {
	return s.maxImageSize
}

// UploadImage stores an image under images/. The declared size is checked
// first and the stream is read with a limit, so a lying client cannot exceed
// the cap. The content type is sniffed from the bytes, not taken from the
// client.
func (s *Storage) UploadImage(ctx context.Context, r io.Reader, size int64, filename string) (*UploadResult, error) {
	if size > s.maxImageSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, size, s.maxImageSize)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > s.maxImageSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxImageSize)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrUnsupportedType, mtype.String())
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	key := generateFileName("images", ext)

	if err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	return &UploadResult{
		Key:      key,
		URL:      s.backend.URL(key),
		Size:     int64(len(data)),
		MimeType: mtype.String(),
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Get opens a reader for an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.backend.Delete(ctx, key)
}

// URL returns the public address of key, or "" for an empty key.
func (s *Storage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.backend.URL(key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func generateFileName(folder, ext string) string {
	timestamp := time.Now().UTC().Format("20060102")
	name := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String(), ext)
	return folder + "/" + name
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return ErrInvalidKey
		}
	}
	return nil
}
