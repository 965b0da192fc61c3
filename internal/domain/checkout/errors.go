package checkout

import "github.com/medico/backend/internal/domain/shared"

// Checkout failures. Messages are the user-facing texts returned by the payment endpoint.
var (
	ErrInvalidSelection = shared.NewDomainError("INVALID_SELECTION", "Invalid medicine selection")
	ErrMissingEmail     = shared.NewDomainError("MISSING_EMAIL", "Email is required")
	ErrItemsNotFound    = shared.NewDomainError("ITEMS_NOT_FOUND", "Medicines not found")
	ErrProcessor        = shared.NewDomainError("PROCESSOR_ERROR", "Failed to create payment session")
)
