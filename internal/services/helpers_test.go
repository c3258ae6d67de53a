// internal/services/helpers_test.go
package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/database"
	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(config.DatabaseConfig{
		Driver:   "sqlite",
		Database: ":memory:",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	backend, err := storage.NewLocalClient(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	require.NoError(t, backend.EnsureBucket(context.Background()))
	return storage.NewStorage(backend, 0)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func pngUpload(t *testing.T) *ImageUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &ImageUpload{
		Reader:   bytes.NewReader(buf.Bytes()),
		Size:     int64(buf.Len()),
		Filename: "art.png",
	}
}

func createTestListing(t *testing.T, svc *ListingService, owner *models.User, title string, price float64) *models.Listing {
	t.Helper()
	listing, err := svc.CreateListing(context.Background(), owner.ID, &CreateListingRequest{
		Title:       title,
		Description: "A piece called " + title,
		Price:       price,
		Category:    models.ListingCategoryPainting,
	}, pngUpload(t))
	require.NoError(t, err)
	return listing
}

func offerStatus(t *testing.T, db *gorm.DB, id interface{}) models.OfferStatus {
	t.Helper()
	var offer models.Offer
	require.NoError(t, db.First(&offer, "id = ?", id).Error)
	return offer.Status
}
