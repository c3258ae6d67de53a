// internal/models/offer.go
package models

import (
	"github.com/google/uuid"
)

// Offer is a monetary bid placed by a user on someone else's listing.
type Offer struct {
	BaseModel
	ListingID uuid.UUID   `json:"listing_id" gorm:"type:uuid;not null;index"`
	BidderID  uuid.UUID   `json:"bidder_id" gorm:"type:uuid;not null;index"`
	Amount    float64     `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status    OfferStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	// Relationships
	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	Bidder  *User    `json:"bidder,omitempty" gorm:"foreignKey:BidderID"`
}

func (o *Offer) IsPending() bool {
	return o.Status == OfferStatusPending
}
