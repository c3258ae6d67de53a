// internal/database/seed.go
package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/models"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password"

var demoUsers = []models.User{
	{Username: "JollyGuru", Email: "jolly@guru.com"},
	{Username: "SunnyScribe", Email: "sunny@scribe.com"},
	{Username: "RadiantComet", Email: "radiant@comet.com"},
}

var demoListings = []struct {
	Owner   string
	Listing models.Listing
}{
	{
		Owner: "JollyGuru",
		Listing: models.Listing{
			Title:       "Sunset over the Harbor",
			Artist:      "J. Guru",
			Description: "Oil on canvas, warm evening light over fishing boats.",
			Dimensions:  "60x90 cm",
			Price:       500,
			Category:    models.ListingCategoryPainting,
			ImagePath:   "images/seed_sunset.jpg",
		},
	},
	{
		Owner: "SunnyScribe",
		Listing: models.Listing{
			Title:       "Quiet Street",
			Artist:      "S. Scribe",
			Description: "Silver gelatin print of an empty street at dawn.",
			Dimensions:  "30x40 cm",
			Price:       180,
			Category:    models.ListingCategoryPhotography,
			ImagePath:   "images/seed_street.jpg",
		},
	},
}

// SeedInitialData creates demo accounts and listings. Existing rows are left untouched.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	owners := make(map[string]models.User, len(demoUsers))
	for _, u := range demoUsers {
		user := u

		var existing models.User
		err := db.Where("username = ?", user.Username).First(&existing).Error
		if err == nil {
			owners[existing.Username] = existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up user %s: %w", user.Username, err)
		}

		if err := user.SetPassword(DemoPassword); err != nil {
			return fmt.Errorf("failed to set password for %s: %w", user.Username, err)
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Username, err)
		}
		owners[user.Username] = user
		logrus.WithField("username", user.Username).Info("Demo user created")
	}

	for _, seed := range demoListings {
		owner, ok := owners[seed.Owner]
		if !ok {
			continue
		}

		var count int64
		db.Model(&models.Listing{}).
			Where("owner_id = ? AND title = ?", owner.ID, seed.Listing.Title).
			Count(&count)
		if count > 0 {
			continue
		}

		listing := seed.Listing
		listing.OwnerID = owner.ID
		if err := db.Create(&listing).Error; err != nil {
			logrus.WithError(err).WithField("title", listing.Title).Warn("Failed to create demo listing")
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
