// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/javajoker/artmarket-backend/internal/config"
)

// PaymentGateway creates payment intents with an external processor.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// StripeGateway talks to Stripe through its own API client, so the process
// keeps no global Stripe key.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	// Add metadata
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

type PaymentService struct {
	gateway         PaymentGateway
	defaultCurrency string
}

// Amount is in minor units (cents for usd).
type CreatePaymentIntentRequest struct {
	Amount   int64  `json:"amount" validate:"gte=1,lte=99999999"`
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

// NewPaymentService uses Stripe when a secret key is configured. Without one
// every request fails with ErrUnavailable.
func NewPaymentService(cfg config.PaymentConfig) *PaymentService {
	var gateway PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = NewStripeGateway(cfg.StripeSecretKey)
	}
	return NewPaymentServiceWithGateway(gateway, cfg.DefaultCurrency)
}

func NewPaymentServiceWithGateway(gateway PaymentGateway, defaultCurrency string) *PaymentService {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &PaymentService{
		gateway:         gateway,
		defaultCurrency: defaultCurrency,
	}
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if s.gateway == nil {
		return nil, newError(ErrUnavailable, "payments are not configured")
	}

	// Set default currency
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	pi, err := s.gateway.CreatePaymentIntent(ctx, req.Amount, currency, map[string]string{
		"user_id": userID.String(),
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Payment intent creation failed")
		return nil, newError(ErrUnavailable, "payment processor unavailable")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"payment_id": pi.ID,
		"amount":     req.Amount,
		"currency":   currency,
	}).Info("Payment intent created")

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       pi.Status,
	}, nil
}
