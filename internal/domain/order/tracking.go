package order

import (
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the customer-facing order state
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// ErrOrderNotFound is returned when the tracking id matches no checkout session
var ErrOrderNotFound = shared.ErrNotFound.WithMessage("Order not found")

// StatusFromSession maps a processor session's status and payment status.
// Payment wins over session state: a completed unpaid session is still pending.
func StatusFromSession(sessionStatus, paymentStatus string) Status {
	switch {
	case paymentStatus == "paid" || paymentStatus == "no_payment_required":
		return StatusPaid
	case sessionStatus == "expired":
		return StatusExpired
	case sessionStatus == "open" || sessionStatus == "complete":
		return StatusPending
	default:
		return StatusUnknown
	}
}

// IsFinal reports whether the status can no longer change
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusExpired
}

// TrackedItem is one purchased item as shown on the tracking page
type TrackedItem struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Tracking is computed on demand from the processor session and the catalog
type Tracking struct {
	TrackingID string
	Status     Status
	Email      string
	Items      []TrackedItem
}

// SessionSnapshot is the slice of a processor session tracking needs
type SessionSnapshot struct {
	ID            string
	Status        string
	PaymentStatus string
	Email         string
	Metadata      map[string]string
}

// ItemIDs decodes the requested ids stored in the session metadata, first
// occurrence order, duplicates dropped; malformed metadata yields none
func (s SessionSnapshot) ItemIDs() []string {
	raw, ok := s.Metadata[checkout.MetadataItemIDs]
	if !ok {
		return nil
	}
	ids, err := checkout.ParseIDList([]byte(raw))
	if err != nil || len(ids) == 0 {
		return nil
	}
	return checkout.NewSelection(ids...).IDs()
}

// NewTracking resolves the session's items against the catalog; unknown ids are skipped
func NewTracking(session SessionSnapshot, index catalog.Index) Tracking {
	t := Tracking{
		TrackingID: session.ID,
		Status:     StatusFromSession(session.Status, session.PaymentStatus),
		Email:      session.Email,
		Items:      []TrackedItem{},
	}
	for _, id := range session.ItemIDs() {
		if item, ok := index.Lookup(id); ok {
			t.Items = append(t.Items, TrackedItem{ID: item.ID, Name: item.Name, Price: item.Price})
		}
	}
	return t
}
