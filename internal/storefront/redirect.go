package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/medico/backend/internal/domain/checkout"
	"go.uber.org/zap"
)

// State is where the customer is in the checkout flow
type State int

const (
	StateIdle State = iota
	StateRedirecting
	StateSuccess
	StateCancel
)

func (s State) String() string {
	switch s {
	case StateRedirecting:
		return "redirecting"
	case StateSuccess:
		return "success"
	case StateCancel:
		return "cancel"
	default:
		return "idle"
	}
}

// Navigator sends the customer to a URL, e.g. by opening a browser
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(url string) error

// Navigate calls f(url)
func (f NavigatorFunc) Navigate(url string) error {
	return f(url)
}

// PaymentCreator is the part of Client the redirector needs
type PaymentCreator interface {
	CreatePayment(ctx context.Context, ids []string, email string) (string, error)
}

// Redirector hands the customer over to the processor's hosted checkout page
// and recognises the pages the processor sends them back to.
type Redirector struct {
	payments  PaymentCreator
	navigator Navigator
	logger    *zap.Logger
}

// NewRedirector creates a Redirector
func NewRedirector(payments PaymentCreator, navigator Navigator, logger *zap.Logger) *Redirector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redirector{payments: payments, navigator: navigator, logger: logger}
}

// Purchase requests a checkout session for sel and navigates to it.
// On any failure the customer stays where they are and the error is returned.
func (r *Redirector) Purchase(ctx context.Context, sel *checkout.Selection, email string) (State, error) {
	var ids []string
	if sel != nil {
		ids = sel.IDs()
	}

	redirectURL, err := r.payments.CreatePayment(ctx, ids, email)
	if err != nil {
		r.logger.Warn("Checkout request failed", zap.Int("items", len(ids)), zap.Error(err))
		return StateIdle, err
	}
	if err := r.navigator.Navigate(redirectURL); err != nil {
		return StateIdle, fmt.Errorf("navigating to checkout: %w", err)
	}

	r.logger.Info("Redirected to checkout", zap.Int("items", len(ids)))
	return StateRedirecting, nil
}

// Land maps the page the processor returned the customer to onto a terminal state.
// Query strings, fragments and a trailing slash are ignored; absolute URLs are accepted.
func Land(path string) (State, error) {
	u, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		return StateIdle, fmt.Errorf("invalid landing path %q: %w", path, err)
	}
	switch p := strings.TrimSuffix(u.Path, "/"); p {
	case "/success":
		return StateSuccess, nil
	case "/cancel":
		return StateCancel, nil
	default:
		return StateIdle, fmt.Errorf("unknown landing path %q", p)
	}
}
