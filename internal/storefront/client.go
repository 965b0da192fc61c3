// Package storefront is the customer-side half of checkout: an API client,
// the redirect flow into the processor's hosted page, order tracking and a
// file-backed selection store.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	catalogapp "github.com/medico/backend/internal/application/catalog"
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

const maxResponseSize = 1 << 20

// Client talks to the storefront's public endpoints
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  "Medico-Storefront/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Medicine is one catalog entry as listed by GET /medicines
type Medicine = catalogapp.ProductResponse

// OrderItem is one purchased item on the tracking page
type OrderItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Order is the tracking view of one checkout session
type Order struct {
	TrackingID string       `json:"trackingId"`
	Status     order.Status `json:"status"`
	Items      []OrderItem  `json:"items"`
}

type paymentRequest struct {
	MedicineIDs []string `json:"medicineIds"`
	Email       string   `json:"email"`
}

// CreatePayment asks the backend for a hosted checkout page and returns its URL
func (c *Client) CreatePayment(ctx context.Context, ids []string, email string) (string, error) {
	var out dto.CheckoutRedirect
	if err := c.do(ctx, http.MethodPost, "/payment", paymentRequest{MedicineIDs: ids, Email: email}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("payment response carried no redirect URL")
	}
	return out.URL, nil
}

// Track fetches the current state of an order
func (c *Client) Track(ctx context.Context, trackingID string) (*Order, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, errors.New("tracking id is required")
	}
	var out Order
	if err := c.do(ctx, http.MethodGet, "/track/"+url.PathEscape(trackingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Medicines lists the catalog
func (c *Client) Medicines(ctx context.Context) ([]Medicine, error) {
	var out []Medicine
	if err := c.do(ctx, http.MethodGet, "/medicines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeAPIError understands both the flat {"error": "..."} body and the /api/v1 envelope
func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var flat dto.PlainError
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Error != "" {
		apiErr.Message = flat.Error
		apiErr.Details = flat.Details
		return apiErr
	}
	var envelope dto.Response
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// CatalogIndex turns a /medicines listing into an index for invoice previews
func CatalogIndex(meds []Medicine) catalog.Index {
	items := make([]*catalog.Item, 0, len(meds))
	for _, m := range meds {
		items = append(items, &catalog.Item{
			ID:       m.ID,
			Name:     m.Name,
			Category: m.Category,
			Price:    decimal.NewFromFloat(m.Price),
			Rating:   m.Rating,
		})
	}
	return catalog.NewIndex(items)
}
