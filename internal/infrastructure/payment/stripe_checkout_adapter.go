package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"
)

// StripeCheckoutAdapter creates and reads Stripe-hosted checkout sessions
type StripeCheckoutAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeCheckoutAdapter validates the configuration and initializes the Stripe client
func NewStripeCheckoutAdapter(config *StripeConfig, logger *zap.Logger) (*StripeCheckoutAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeCheckoutAdapter{
		config: config,
		logger: logger.Named("stripe"),
	}, nil
}

// CreateCheckoutSession makes exactly one Stripe call; nothing is retried or persisted
func (a *StripeCheckoutAdapter) CreateCheckoutSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error) {
	a.logger.Debug("Creating Stripe checkout session",
		zap.Int("line_items", len(p.LineItems)),
		zap.String("email", p.CustomerEmail))

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice(p.PaymentMethodTypes),
		Mode:               stripe.String(p.Mode),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		CustomerEmail:      stripe.String(p.CustomerEmail),
	}
	params.Context = ctx

	for _, li := range p.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(li.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := checkoutsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session", zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created Stripe checkout session", zap.String("session_id", cs.ID))

	return &checkout.Session{ID: cs.ID, URL: cs.URL}, nil
}

// GetCheckoutSession reads a session for order tracking. Unknown ids return order.ErrOrderNotFound.
func (a *StripeCheckoutAdapter) GetCheckoutSession(ctx context.Context, sessionID string) (*order.SessionSnapshot, error) {
	a.logger.Debug("Getting Stripe checkout session", zap.String("session_id", sessionID))

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, order.ErrOrderNotFound
		}
		a.logger.Error("Failed to get Stripe checkout session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get checkout session: %w", err)
	}

	return SnapshotFromSession(cs), nil
}

// SnapshotFromSession extracts what tracking needs from a Stripe checkout session
func SnapshotFromSession(cs *stripe.CheckoutSession) *order.SessionSnapshot {
	email := cs.CustomerEmail
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	return &order.SessionSnapshot{
		ID:            cs.ID,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		Email:         email,
		Metadata:      cs.Metadata,
	}
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound
}
