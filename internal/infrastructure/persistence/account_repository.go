package persistence

import (
	"context"
	"errors"

	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAccountRepository implements identity.AccountRepository. Each role's
// accounts live in the table named by the role lookup table.
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create stores a new account in its role's table
func (r *GormAccountRepository) Create(ctx context.Context, account *identity.Account) error {
	table, err := tableFor(account.Role)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Table(table).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return identity.ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByEmail finds an account by normalized email within a role's table
func (r *GormAccountRepository) FindByEmail(ctx context.Context, role identity.Role, email string) (*identity.Account, error) {
	return r.first(ctx, role, "email = ?", identity.NormalizeEmail(email))
}

// FindByID finds an account by ID within a role's table
func (r *GormAccountRepository) FindByID(ctx context.Context, role identity.Role, id string) (*identity.Account, error) {
	return r.first(ctx, role, "id = ?", id)
}

func (r *GormAccountRepository) first(ctx context.Context, role identity.Role, cond string, arg any) (*identity.Account, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	var account identity.Account
	if err := r.db.WithContext(ctx).Table(table).Where(cond, arg).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	account.Role = role
	return &account, nil
}

func tableFor(role identity.Role) (string, error) {
	if !role.Valid() {
		return "", identity.ErrUnknownRole
	}
	return role.Table(), nil
}
