// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/models"
)

type UserService struct {
	db *gorm.DB
}

// UserProfile is the caller's own account plus a few activity counters.
type UserProfile struct {
	*models.User
	ListingCount       int64 `json:"listing_count"`
	OffersMadeCount    int64 `json:"offers_made_count"`
	PendingOffersCount int64 `json:"pending_offers_received"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	profile := &UserProfile{User: user}

	if err := db.Model(&models.Listing{}).Where("owner_id = ?", userID).
		Count(&profile.ListingCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	if err := db.Model(&models.Offer{}).Where("bidder_id = ?", userID).
		Count(&profile.OffersMadeCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	if err := pendingReceivedQuery(db, userID).Count(&profile.PendingOffersCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending offers: %w", err)
	}

	return profile, nil
}
