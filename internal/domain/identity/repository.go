package identity

import "context"

// AccountRepository stores accounts in the table selected by their role.
// Lookups return shared.ErrNotFound; Create returns ErrEmailTaken for duplicates.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, role Role, email string) (*Account, error)
	FindByID(ctx context.Context, role Role, id string) (*Account, error)
}
