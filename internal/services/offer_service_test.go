// internal/services/offer_service_test.go
package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/mq"
)

type offerFixture struct {
	db       *gorm.DB
	listings *ListingService
	offers   *OfferService
	owner    *models.User
	bidders  []*models.User
	listing  *models.Listing
}

func newOfferFixture(t *testing.T, notifications *NotificationService) *offerFixture {
	t.Helper()
	db := newTestDB(t)
	store := newTestStorage(t)

	f := &offerFixture{
		db:       db,
		listings: NewListingService(db, store),
		offers:   NewOfferService(db, store, notifications),
		owner:    createTestUser(t, db, "U1"),
		bidders:  []*models.User{createTestUser(t, db, "U2"), createTestUser(t, db, "U3")},
	}
	f.listing = createTestListing(t, f.listings, f.owner, "Sunset", 500)
	return f
}

func (f *offerFixture) submit(t *testing.T, bidder *models.User, amount float64) *models.Offer {
	t.Helper()
	offer, err := f.offers.SubmitOffer(context.Background(), bidder.ID, &SubmitOfferRequest{
		ListingID: f.listing.ID,
		Amount:    amount,
	})
	require.NoError(t, err)
	return offer
}

func TestAcceptOfferRejectsSiblings(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	u2Offer := f.submit(t, f.bidders[0], 450)
	u3Offer := f.submit(t, f.bidders[1], 475)
	assert.Equal(t, models.OfferStatusPending, u2Offer.Status)
	assert.Equal(t, models.OfferStatusPending, u3Offer.Status)

	resolution, err := f.offers.AcceptOffer(ctx, u3Offer.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, resolution.Offer.Status)
	assert.Equal(t, 1, resolution.RejectedCount)
	require.Len(t, resolution.RejectedOffers, 1)
	assert.Equal(t, u2Offer.ID, resolution.RejectedOffers[0].ID)

	assert.Equal(t, models.OfferStatusAccepted, offerStatus(t, f.db, u3Offer.ID))
	assert.Equal(t, models.OfferStatusRejected, offerStatus(t, f.db, u2Offer.ID))
}

func TestSubmitOfferValidation(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	_, err := f.offers.SubmitOffer(ctx, f.owner.ID, &SubmitOfferRequest{ListingID: f.listing.ID, Amount: 100})
	assert.ErrorIs(t, err, ErrValidation, "self-bid")

	tests := []struct {
		name    string
		amount  float64
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -5, true},
		{"tenth of a cent", 0.001, true},
		{"rounds to zero", 0.004, true},
		{"fractional cent", 19.995, true},
		{"above maximum", 1e12, true},
		{"one cent", 0.01, false},
		{"cents", 19.99, false},
		{"maximum", 1000000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, err := f.offers.SubmitOffer(ctx, f.bidders[0].ID, &SubmitOfferRequest{ListingID: f.listing.ID, Amount: tt.amount})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, offer.Amount)
		})
	}

	_, err = f.offers.SubmitOffer(ctx, f.bidders[0].ID, &SubmitOfferRequest{ListingID: uuid.New(), Amount: 100})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveOfferAuthorization(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()
	offer := f.submit(t, f.bidders[0], 450)

	_, err := f.offers.AcceptOffer(ctx, offer.ID, f.bidders[1].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.offers.RejectOffer(ctx, offer.ID, f.bidders[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.offers.AcceptOffer(ctx, uuid.New(), f.owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, models.OfferStatusPending, offerStatus(t, f.db, offer.ID))
}

func TestTerminalOffersCannotBeResolvedAgain(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	rejected := f.submit(t, f.bidders[0], 450)
	resolution, err := f.offers.RejectOffer(ctx, rejected.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, resolution.Offer.Status)

	_, err = f.offers.AcceptOffer(ctx, rejected.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.offers.RejectOffer(ctx, rejected.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrConflict)

	accepted := f.submit(t, f.bidders[1], 475)
	_, err = f.offers.AcceptOffer(ctx, accepted.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.offers.RejectOffer(ctx, accepted.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, models.OfferStatusAccepted, offerStatus(t, f.db, accepted.ID))
}

func TestSubmitOfferAfterAcceptConflicts(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	offer := f.submit(t, f.bidders[0], 450)
	_, err := f.offers.AcceptOffer(ctx, offer.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.offers.SubmitOffer(ctx, f.bidders[1].ID, &SubmitOfferRequest{ListingID: f.listing.ID, Amount: 600})
	assert.ErrorIs(t, err, ErrConflict)
}

// SQLite runs this on a single connection, so it covers serialization but
// not row locking. The Postgres variant lives in offer_locking_postgres_test.go.
func TestConcurrentAcceptsHaveOneWinner(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	first := f.submit(t, f.bidders[0], 450)
	second := f.submit(t, f.bidders[1], 475)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, offer := range []*models.Offer{first, second} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.offers.AcceptOffer(ctx, id, f.owner.ID)
		}(i, offer.ID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, successes)

	var accepted int64
	require.NoError(t, f.db.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", f.listing.ID, models.OfferStatusAccepted).
		Count(&accepted).Error)
	assert.EqualValues(t, 1, accepted)
}

func TestAcceptedOfferIndexIsUnique(t *testing.T) {
	f := newOfferFixture(t, nil)

	first := f.submit(t, f.bidders[0], 450)
	second := f.submit(t, f.bidders[1], 475)

	require.NoError(t, f.db.Model(&models.Offer{}).Where("id = ?", first.ID).
		Update("status", models.OfferStatusAccepted).Error)
	err := f.db.Model(&models.Offer{}).Where("id = ?", second.ID).
		Update("status", models.OfferStatusAccepted).Error
	assert.Error(t, err)
}

func TestOfferReadsAndCount(t *testing.T) {
	f := newOfferFixture(t, nil)
	ctx := context.Background()

	f.submit(t, f.bidders[0], 450)
	u3Offer := f.submit(t, f.bidders[1], 475)

	count, err := f.offers.CountPendingOffersReceived(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	received, err := f.offers.ListReceivedOffers(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, received, 2)
	for _, offer := range received {
		require.NotNil(t, offer.Bidder)
		require.NotNil(t, offer.Listing)
		assert.Equal(t, "Sunset", offer.Listing.Title)
		assert.NotEmpty(t, offer.Listing.ImageURL)
	}

	none, err := f.offers.CountPendingOffersReceived(ctx, f.bidders[0].ID)
	require.NoError(t, err)
	assert.Zero(t, none)

	_, err = f.offers.AcceptOffer(ctx, u3Offer.ID, f.owner.ID)
	require.NoError(t, err)

	count, err = f.offers.CountPendingOffersReceived(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	made, err := f.offers.ListOffersMade(ctx, f.bidders[0].ID)
	require.NoError(t, err)
	require.Len(t, made, 1)
	assert.Equal(t, models.OfferStatusRejected, made[0].Status)
	assert.Equal(t, "U1", made[0].Listing.Owner.Username)
}

func TestOfferEventsArePublished(t *testing.T) {
	broker := mq.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })
	queue := mq.New(broker)
	f := newOfferFixture(t, NewNotificationService(queue))

	var mu sync.Mutex
	var events []OfferEvent
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go queue.Subscribe(ctx, OfferEventsChannel, func(ctx context.Context, msg mq.Message) error {
		var event OfferEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	})
	require.Eventually(t, func() bool {
		return broker.SubscriberCount(OfferEventsChannel) == 1
	}, time.Second, 5*time.Millisecond)

	u2Offer := f.submit(t, f.bidders[0], 450)
	u3Offer := f.submit(t, f.bidders[1], 475)
	_, err := f.offers.AcceptOffer(context.Background(), u3Offer.ID, f.owner.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 5)
	assert.Equal(t, OfferEventSubmitted, events[0].Type)
	assert.Equal(t, f.owner.ID, events[0].RecipientID)
	assert.Equal(t, OfferEventAccepted, events[2].Type)
	assert.Equal(t, f.bidders[1].ID, events[2].RecipientID)
	assert.Equal(t, OfferEventRejected, events[3].Type)
	assert.Equal(t, u2Offer.ID, events[3].OfferID)
	assert.Equal(t, f.bidders[0].ID, events[3].RecipientID)
	assert.Equal(t, OfferEventAccepted, events[4].Type)
	assert.Equal(t, u3Offer.ID, events[4].OfferID)
	assert.Equal(t, f.owner.ID, events[4].RecipientID)
}

func TestRejectOfferNotifiesBidderAndOwner(t *testing.T) {
	broker := mq.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })
	queue := mq.New(broker)
	f := newOfferFixture(t, NewNotificationService(queue))

	offer := f.submit(t, f.bidders[0], 450)

	var mu sync.Mutex
	var events []OfferEvent
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go queue.Subscribe(ctx, OfferEventsChannel, func(ctx context.Context, msg mq.Message) error {
		var event OfferEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	})
	require.Eventually(t, func() bool {
		return broker.SubscriberCount(OfferEventsChannel) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.offers.RejectOffer(context.Background(), offer.ID, f.owner.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, OfferEventRejected, event.Type)
		assert.Equal(t, offer.ID, event.OfferID)
	}
	assert.Equal(t, f.bidders[0].ID, events[0].RecipientID)
	assert.Equal(t, f.owner.ID, events[1].RecipientID)
}
