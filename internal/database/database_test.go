// internal/database/database_test.go
package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Initialize(config.DatabaseConfig{
		Driver:   "sqlite",
		Database: ":memory:",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db))
	t.Cleanup(func() { Close(db) })
	return db
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, RunMigrations(db))

	for _, table := range []string{"users", "listings", "offers", "posts", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOneAcceptedOfferPerListing(t *testing.T) {
	db := newTestDB(t)

	owner := models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x"}
	bidder := models.User{Username: "bidder", Email: "bidder@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&bidder).Error)

	listing := models.Listing{
		OwnerID:     owner.ID,
		Title:       "Sunset",
		Description: "Oil on canvas",
		Price:       500,
		Category:    models.ListingCategoryPainting,
		ImagePath:   "images/sunset.png",
	}
	require.NoError(t, db.Create(&listing).Error)

	accepted := models.Offer{ListingID: listing.ID, BidderID: bidder.ID, Amount: 400, Status: models.OfferStatusAccepted}
	require.NoError(t, db.Create(&accepted).Error)

	// any number of pending or rejected offers
	for _, status := range []models.OfferStatus{models.OfferStatusPending, models.OfferStatusRejected, models.OfferStatusPending} {
		offer := models.Offer{ListingID: listing.ID, BidderID: bidder.ID, Amount: 300, Status: status}
		require.NoError(t, db.Create(&offer).Error)
	}

	second := models.Offer{ListingID: listing.ID, BidderID: bidder.ID, Amount: 450, Status: models.OfferStatusAccepted}
	err := db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")

	err := WithTransaction(db, func(tx *gorm.DB) error {
		user := models.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "x"}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.User{}).Where("username = ?", "ghost").Count(&count)
	assert.Zero(t, count)
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedInitialData(db))
	require.NoError(t, SeedInitialData(db))

	var users, listings int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Listing{}).Count(&listings)
	assert.Equal(t, int64(len(demoUsers)), users)
	assert.Equal(t, int64(len(demoListings)), listings)

	var user models.User
	require.NoError(t, db.Where("username = ?", "JollyGuru").First(&user).Error)
	assert.NoError(t, user.CheckPassword(DemoPassword))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "idx_users_username"})))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))

	assert.Equal(t, "idx_users_username", ViolatedConstraint(&pq.Error{Code: "23505", Constraint: "idx_users_username"}))
	assert.Empty(t, ViolatedConstraint(errors.New("other")))
}
