// internal/services/payment_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	amount   int64
	currency string
	metadata map[string]string
	err      error
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.amount = amount
	g.currency = currency
	g.metadata = metadata
	return &PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret", Status: "requires_payment_method"}, nil
}

func TestCreatePaymentIntentBounds(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -100, true},
		{"minimum", 1, false},
		{"maximum", 99999999, false},
		{"above maximum", 100000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &fakeGateway{}
			svc := NewPaymentServiceWithGateway(gateway, "usd")

			resp, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), &CreatePaymentIntentRequest{Amount: tt.amount})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Zero(t, gateway.amount, "gateway is not called")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pi_test_secret", resp.ClientSecret)
			assert.Equal(t, tt.amount, gateway.amount)
		})
	}
}

func TestCreatePaymentIntentCurrency(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewPaymentServiceWithGateway(gateway, "")
	userID := uuid.New()

	_, err := svc.CreatePaymentIntent(context.Background(), userID, &CreatePaymentIntentRequest{Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, "usd", gateway.currency)
	assert.Equal(t, userID.String(), gateway.metadata["user_id"])

	_, err = svc.CreatePaymentIntent(context.Background(), userID, &CreatePaymentIntentRequest{Amount: 1000, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "eur", gateway.currency)

	_, err = svc.CreatePaymentIntent(context.Background(), userID, &CreatePaymentIntentRequest{Amount: 1000, Currency: "euro"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreatePaymentIntentUnavailable(t *testing.T) {
	svc := NewPaymentServiceWithGateway(nil, "usd")
	_, err := svc.CreatePaymentIntent(context.Background(), uuid.New(), &CreatePaymentIntentRequest{Amount: 1000})
	assert.ErrorIs(t, err, ErrUnavailable)

	failing := NewPaymentServiceWithGateway(&fakeGateway{err: errors.New("card network down")}, "usd")
	_, err = failing.CreatePaymentIntent(context.Background(), uuid.New(), &CreatePaymentIntentRequest{Amount: 1000})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, err.Error(), "card network")
}
