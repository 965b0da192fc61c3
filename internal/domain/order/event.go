package order

import "time"

// Event types published on the order topic
const (
	EventSessionCreated = "checkout.session_created"
	EventOrderPaid      = "order.paid"
	EventOrderPending   = "order.pending"
	EventOrderExpired   = "order.expired"
)

// EventTypeForStatus picks the order event matching a session status.
// A completed session still awaiting an asynchronous payment is pending.
func EventTypeForStatus(s Status) string {
	switch s {
	case StatusPaid:
		return EventOrderPaid
	case StatusExpired:
		return EventOrderExpired
	default:
		return EventOrderPending
	}
}

// Event is an order lifecycle notification keyed by checkout session id
type Event struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	Email      string    `json:"email,omitempty"`
	ItemIDs    []string  `json:"medicine_ids"`
	Status     Status    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType, sessionID, email string, itemIDs []string) Event {
	if itemIDs == nil {
		itemIDs = []string{}
	}
	return Event{
		Type:       eventType,
		SessionID:  sessionID,
		Email:      email,
		ItemIDs:    itemIDs,
		OccurredAt: time.Now().UTC(),
	}
}
