// internal/services/listing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artmarket-backend/internal/database"
	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/storage"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

type ListingService struct {
	db      *gorm.DB
	storage *storage.Storage
}

// ImageUpload is an image file received alongside a form submission.
type ImageUpload struct {
	Reader   io.Reader
	Size     int64
	Filename string
}

type CreateListingRequest struct {
	Title       string                 `form:"title" json:"title" validate:"required,max=255"`
	Artist      string                 `form:"artist" json:"artist" validate:"max=255"`
	Year        *int                   `form:"year" json:"year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Description string                 `form:"description" json:"description" validate:"required"`
	Dimensions  string                 `form:"dimensions" json:"dimensions" validate:"max=100"`
	Price       float64                `form:"price" json:"price" validate:"listing_price"`
	Category    models.ListingCategory `form:"category" json:"category" validate:"required,listing_category"`
}

type UpdateListingRequest struct {
	Title       *string                 `form:"title" json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Artist      *string                 `form:"artist" json:"artist,omitempty" validate:"omitempty,max=255"`
	Year        *int                    `form:"year" json:"year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	Description *string                 `form:"description" json:"description,omitempty" validate:"omitempty,min=1"`
	Dimensions  *string                 `form:"dimensions" json:"dimensions,omitempty" validate:"omitempty,max=100"`
	Price       *float64                `form:"price" json:"price,omitempty" validate:"omitempty,listing_price"`
	Category    *models.ListingCategory `form:"category" json:"category,omitempty" validate:"omitempty,listing_category"`
}

type ListingFilter struct {
	OwnerID    *uuid.UUID
	Pagination utils.PaginationParams
}

var listingSortFields = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"title":      "title",
	"year":       "year",
}

func NewListingService(db *gorm.DB, store *storage.Storage) *ListingService {
	return &ListingService{
		db:      db,
		storage: store,
	}
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID uuid.UUID, req *CreateListingRequest, image *ImageUpload) (*models.Listing, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, validationError("image is required")
	}

	// Verify the owner exists
	var owner models.User
	if err := s.db.WithContext(ctx).Select("id", "username").First(&owner, "id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	upload, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		OwnerID:     ownerID,
		Title:       req.Title,
		Artist:      strings.TrimSpace(req.Artist),
		Year:        req.Year,
		Description: req.Description,
		Dimensions:  strings.TrimSpace(req.Dimensions),
		Price:       req.Price,
		Category:    req.Category,
		ImagePath:   upload.Key,
	}

	if err := s.db.WithContext(ctx).Create(listing).Error; err != nil {
		s.removeImage(ctx, upload.Key)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"owner_id":   ownerID,
		"price":      listing.Price,
	}).Info("Listing created")

	listing.Owner = &owner
	s.resolveImage(listing)
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).Preload("Owner", selectPublicUser).
		First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("listing")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.resolveImage(&listing)
	return &listing, nil
}

// UpdateListing applies the non-nil fields of req. Only the owner may update,
// and a new image replaces the stored one.
func (s *ListingService) UpdateListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID, req *UpdateListingRequest, image *ImageUpload) (*models.Listing, error) {
	// Find and verify ownership
	var listing models.Listing
	if err := s.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("listing")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if listing.OwnerID != callerID {
		return nil, forbiddenError("only the owner can update this listing")
	}

	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Artist != nil {
		updates["artist"] = strings.TrimSpace(*req.Artist)
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Dimensions != nil {
		updates["dimensions"] = strings.TrimSpace(*req.Dimensions)
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}

	oldImage := listing.ImagePath
	if image != nil {
		upload, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		updates["image_path"] = upload.Key
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&listing).Updates(updates).Error; err != nil {
			if key, ok := updates["image_path"].(string); ok {
				s.removeImage(ctx, key)
			}
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	if _, replaced := updates["image_path"]; replaced {
		s.removeImage(ctx, oldImage)
	}

	return s.GetListing(ctx, id)
}

// DeleteListing removes the listing and every offer made on it.
func (s *ListingService) DeleteListing(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	var imagePath string

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("listing")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if listing.OwnerID != callerID {
			return forbiddenError("only the owner can delete this listing")
		}

		if err := tx.Where("listing_id = ?", listing.ID).Delete(&models.Offer{}).Error; err != nil {
			return fmt.Errorf("failed to delete offers: %w", err)
		}

		if err := tx.Delete(&listing).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		imagePath = listing.ImagePath
		return nil
	})
	if err != nil {
		return err
	}

	s.removeImage(ctx, imagePath)

	logrus.WithFields(logrus.Fields{
		"listing_id": id,
		"owner_id":   callerID,
	}).Info("Listing deleted")

	return nil
}

func (s *ListingService) ListListings(ctx context.Context, filter ListingFilter) (*utils.PaginationResult, error) {
	params := utils.NormalizePagination(filter.Pagination)
	query := s.db.WithContext(ctx).Model(&models.Listing{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ?", searchTerm, searchTerm)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	query = utils.ApplySort(query, params, listingSortFields)
	query = utils.ApplyPagination(query, params)

	var listings []models.Listing
	if err := query.Preload("Owner", selectPublicUser).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	for i := range listings {
		s.resolveImage(&listings[i])
	}

	result := utils.CreatePaginationResult(listings, total, params)
	return &result, nil
}

func (s *ListingService) uploadImage(ctx context.Context, image *ImageUpload) (*storage.UploadResult, error) {
	upload, err := s.storage.UploadImage(ctx, image.Reader, image.Size, image.Filename)
	if err != nil {
		return nil, imageError(err, s.storage.MaxImageSize())
	}
	return upload, nil
}

func (s *ListingService) removeImage(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to delete listing image")
	}
}

func (s *ListingService) resolveImage(listing *models.Listing) {
	listing.ImageURL = s.storage.URL(listing.ImagePath)
}

// imageError turns upload rejections into validation errors.
func imageError(err error, maxSize int64) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return validationError("image must be at most %d bytes", maxSize)
	case errors.Is(err, storage.ErrUnsupportedType):
		return validationError("file must be an image")
	case errors.Is(err, storage.ErrEmptyFile):
		return validationError("image is empty")
	}
	return fmt.Errorf("failed to store image: %w", err)
}

// selectPublicUser keeps preloaded users down to their public identity.
func selectPublicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "created_at")
}
