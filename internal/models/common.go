// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key in Go so the schema does not depend on
// a database-side uuid generator.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

type ListingCategory string

const (
	ListingCategoryPainting    ListingCategory = "painting"
	ListingCategorySculpture   ListingCategory = "sculpture"
	ListingCategoryPhotography ListingCategory = "photography"
	ListingCategoryPrint       ListingCategory = "print"
	ListingCategoryDrawing     ListingCategory = "drawing"
	ListingCategoryDigital     ListingCategory = "digital"
	ListingCategoryMixedMedia  ListingCategory = "mixed_media"
	ListingCategoryOther       ListingCategory = "other"
)

var ListingCategories = []ListingCategory{
	ListingCategoryPainting,
	ListingCategorySculpture,
	ListingCategoryPhotography,
	ListingCategoryPrint,
	ListingCategoryDrawing,
	ListingCategoryDigital,
	ListingCategoryMixedMedia,
	ListingCategoryOther,
}

func (c ListingCategory) IsValid() bool {
	for _, known := range ListingCategories {
		if c == known {
			return true
		}
	}
	return false
}
