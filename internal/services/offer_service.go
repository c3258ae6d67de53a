// internal/services/offer_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artmarket-backend/internal/database"
	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/storage"
)

type OfferService struct {
	db                  *gorm.DB
	storage             *storage.Storage
	notificationService *NotificationService
}

type SubmitOfferRequest struct {
	ListingID uuid.UUID `json:"listing_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"offer_amount"`
}

// OfferResolution is the outcome of a successful accept or reject.
// RejectedOffers lists the pending siblings an accept closed out.
type OfferResolution struct {
	Offer          *models.Offer  `json:"offer"`
	RejectedOffers []models.Offer `json:"rejected_offers"`
	RejectedCount  int            `json:"rejected_count"`
}

func NewOfferService(db *gorm.DB, store *storage.Storage, notificationService *NotificationService) *OfferService {
	return &OfferService{
		db:                  db,
		storage:             store,
		notificationService: notificationService,
	}
}

func (s *OfferService) SubmitOffer(ctx context.Context, bidderID uuid.UUID, req *SubmitOfferRequest) (*models.Offer, error) {
	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var offer models.Offer
	var ownerID uuid.UUID

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		listing, err := lockListing(tx, req.ListingID)
		if err != nil {
			return err
		}

		if listing.OwnerID == bidderID {
			return validationError("you cannot bid on your own listing")
		}

		var accepted int64
		if err := tx.Model(&models.Offer{}).
			Where("listing_id = ? AND status = ?", listing.ID, models.OfferStatusAccepted).
			Count(&accepted).Error; err != nil {
			return fmt.Errorf("failed to check listing offers: %w", err)
		}
		if accepted > 0 {
			return conflictError("this listing has already been sold")
		}

		offer = models.Offer{
			ListingID: listing.ID,
			BidderID:  bidderID,
			Amount:    req.Amount,
			Status:    models.OfferStatusPending,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}

		ownerID = listing.OwnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"offer_id":   offer.ID,
		"listing_id": offer.ListingID,
		"bidder_id":  bidderID,
		"amount":     offer.Amount,
	}).Info("Offer submitted")

	s.notificationService.PublishOfferEvents(ctx, newOfferEvent(OfferEventSubmitted, &offer, ownerID))

	return &offer, nil
}

// AcceptOffer marks the offer accepted and rejects every other pending offer
// on the same listing in one transaction. Of two concurrent accepts on the
// same listing exactly one succeeds; the other gets ErrConflict.
func (s *OfferService) AcceptOffer(ctx context.Context, offerID uuid.UUID, callerID uuid.UUID) (*OfferResolution, error) {
	var resolution OfferResolution
	var ownerID uuid.UUID

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		offer, listing, err := lockPendingOffer(tx, offerID, callerID, "accept")
		if err != nil {
			return err
		}
		ownerID = listing.OwnerID

		// The status guard makes this a no-op for anyone who lost the race.
		result := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", offer.ID, models.OfferStatusPending).
			Update("status", models.OfferStatusAccepted)
		if result.Error != nil {
			if database.IsUniqueViolation(result.Error) {
				return conflictError("this listing already has an accepted offer")
			}
			return fmt.Errorf("failed to accept offer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("offer is no longer pending")
		}
		offer.Status = models.OfferStatusAccepted

		var siblings []models.Offer
		if err := tx.Where("listing_id = ? AND id <> ? AND status = ?",
			offer.ListingID, offer.ID, models.OfferStatusPending).
			Find(&siblings).Error; err != nil {
			return fmt.Errorf("failed to load competing offers: %w", err)
		}

		if len(siblings) > 0 {
			ids := make([]uuid.UUID, len(siblings))
			for i := range siblings {
				ids[i] = siblings[i].ID
				siblings[i].Status = models.OfferStatusRejected
			}
			if err := tx.Model(&models.Offer{}).
				Where("id IN ? AND status = ?", ids, models.OfferStatusPending).
				Update("status", models.OfferStatusRejected).Error; err != nil {
				return fmt.Errorf("failed to reject competing offers: %w", err)
			}
		}

		resolution = OfferResolution{
			Offer:          offer,
			RejectedOffers: siblings,
			RejectedCount:  len(siblings),
		}
		return nil
	})
	if err != nil {
		// A concurrent accept that slipped past the row lock trips the
		// partial unique index at commit.
		if database.IsUniqueViolation(err) {
			return nil, conflictError("this listing already has an accepted offer")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"offer_id":   resolution.Offer.ID,
		"listing_id": resolution.Offer.ListingID,
		"rejected":   resolution.RejectedCount,
	}).Info("Offer accepted")

	events := []OfferEvent{newOfferEvent(OfferEventAccepted, resolution.Offer, resolution.Offer.BidderID)}
	for i := range resolution.RejectedOffers {
		sibling := &resolution.RejectedOffers[i]
		events = append(events, newOfferEvent(OfferEventRejected, sibling, sibling.BidderID))
	}
	// The owner's pending count dropped too.
	events = append(events, newOfferEvent(OfferEventAccepted, resolution.Offer, ownerID))
	s.notificationService.PublishOfferEvents(ctx, events...)

	return &resolution, nil
}

func (s *OfferService) RejectOffer(ctx context.Context, offerID uuid.UUID, callerID uuid.UUID) (*OfferResolution, error) {
	var offer *models.Offer
	var ownerID uuid.UUID

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var listing *models.Listing
		var err error
		offer, listing, err = lockPendingOffer(tx, offerID, callerID, "reject")
		if err != nil {
			return err
		}
		ownerID = listing.OwnerID

		result := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", offer.ID, models.OfferStatusPending).
			Update("status", models.OfferStatusRejected)
		if result.Error != nil {
			return fmt.Errorf("failed to reject offer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("offer is no longer pending")
		}

		offer.Status = models.OfferStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"offer_id":   offer.ID,
		"listing_id": offer.ListingID,
	}).Info("Offer rejected")

	s.notificationService.PublishOfferEvents(ctx,
		newOfferEvent(OfferEventRejected, offer, offer.BidderID),
		newOfferEvent(OfferEventRejected, offer, ownerID),
	)

	return &OfferResolution{Offer: offer, RejectedOffers: []models.Offer{}}, nil
}

// ListReceivedOffers returns the pending offers on the caller's listings,
// newest first.
func (s *OfferService) ListReceivedOffers(ctx context.Context, ownerID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	if err := pendingReceivedQuery(s.db.WithContext(ctx), ownerID).
		Preload("Bidder", selectPublicUser).
		Preload("Listing").
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list received offers: %w", err)
	}

	s.resolveListingImages(offers)
	return offers, nil
}

// ListOffersMade returns every offer the caller has placed, in any state.
func (s *OfferService) ListOffersMade(ctx context.Context, bidderID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	if err := s.db.WithContext(ctx).
		Where("bidder_id = ?", bidderID).
		Preload("Listing").
		Preload("Listing.Owner", selectPublicUser).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	s.resolveListingImages(offers)
	return offers, nil
}

// CountPendingOffersReceived counts pending offers across every listing the
// user owns.
func (s *OfferService) CountPendingOffersReceived(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := pendingReceivedQuery(s.db.WithContext(ctx), ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}

func (s *OfferService) resolveListingImages(offers []models.Offer) {
	if s.storage == nil {
		return
	}
	for i := range offers {
		if offers[i].Listing != nil {
			offers[i].Listing.ImageURL = s.storage.URL(offers[i].Listing.ImagePath)
		}
	}
}

// pendingReceivedQuery selects pending offers on listings owned by ownerID.
func pendingReceivedQuery(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	owned := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Listing{}).
		Select("id").
		Where("owner_id = ?", ownerID)

	return db.Model(&models.Offer{}).
		Where("listing_id IN (?) AND status = ?", owned, models.OfferStatusPending)
}

// lockListing takes a row lock on the listing for the rest of tx. Every
// offer transition on a listing goes through this lock.
func lockListing(tx *gorm.DB, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("listing")
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}

// lockPendingOffer loads the offer, locks its listing, checks the caller owns
// the listing and re-reads the offer under the lock.
func lockPendingOffer(tx *gorm.DB, offerID uuid.UUID, callerID uuid.UUID, action string) (*models.Offer, *models.Listing, error) {
	var offer models.Offer
	if err := tx.First(&offer, "id = ?", offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFoundError("offer")
		}
		return nil, nil, fmt.Errorf("failed to load offer: %w", err)
	}

	listing, err := lockListing(tx, offer.ListingID)
	if err != nil {
		return nil, nil, err
	}

	if listing.OwnerID != callerID {
		return nil, nil, forbiddenError("only the listing owner can %s offers", action)
	}

	var current models.Offer
	if err := tx.First(&current, "id = ?", offerID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to reload offer: %w", err)
	}

	if !current.IsPending() {
		return nil, nil, conflictError("offer has already been %s", current.Status)
	}

	return &current, listing, nil
}
