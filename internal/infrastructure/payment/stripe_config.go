package payment

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe checkout integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// WebhookSecret verifies webhook signatures (whsec_xxx)
	WebhookSecret string

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool

	// Currency is used for every line item, lowercase ISO code (e.g. "inr")
	Currency string
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}

	if c.IsTestMode {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_test" {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_live" {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("stripe: currency must be a 3-letter ISO code")
	}
	c.Currency = strings.ToLower(c.Currency)

	return nil
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
