package persistence

import (
	"context"
	"sync"

	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/domain/shared"
)

// InMemoryAccountRepository implements identity.AccountRepository for the
// snapshot catalog mode, where no database is configured. Accounts are lost on restart.
type InMemoryAccountRepository struct {
	mu     sync.RWMutex
	tables map[string]map[string]*identity.Account
}

// NewInMemoryAccountRepository creates an empty repository
func NewInMemoryAccountRepository() *InMemoryAccountRepository {
	return &InMemoryAccountRepository{tables: make(map[string]map[string]*identity.Account)}
}

// Create stores a new account in its role's table
func (r *InMemoryAccountRepository) Create(_ context.Context, account *identity.Account) error {
	table, err := tableFor(account.Role)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.tables[table]
	if rows == nil {
		rows = make(map[string]*identity.Account)
		r.tables[table] = rows
	}
	if _, ok := rows[account.ID]; ok {
		return shared.ErrAlreadyExists
	}
	for _, existing := range rows {
		if existing.Email == account.Email {
			return identity.ErrEmailTaken
		}
	}
	stored := *account
	rows[account.ID] = &stored
	return nil
}

// FindByEmail finds an account by normalized email within a role's table
func (r *InMemoryAccountRepository) FindByEmail(_ context.Context, role identity.Role, email string) (*identity.Account, error) {
	email = identity.NormalizeEmail(email)
	return r.find(role, func(a *identity.Account) bool { return a.Email == email })
}

// FindByID finds an account by ID within a role's table
func (r *InMemoryAccountRepository) FindByID(_ context.Context, role identity.Role, id string) (*identity.Account, error) {
	return r.find(role, func(a *identity.Account) bool { return a.ID == id })
}

func (r *InMemoryAccountRepository) find(role identity.Role, match func(*identity.Account) bool) (*identity.Account, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.tables[table] {
		if match(a) {
			found := *a
			found.Role = role
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}
