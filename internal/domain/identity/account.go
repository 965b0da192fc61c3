package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medico/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost for new password hashes
var HashCost = 12

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

// Identity failures
var (
	ErrMissingFields      = shared.ErrInvalidInput.WithMessage("Please fill all fields")
	ErrInvalidEmail       = shared.ErrInvalidInput.WithMessage("Invalid email format")
	ErrWeakPassword       = shared.ErrInvalidInput.WithMessage("Password must be between 6 and 72 characters")
	ErrInvalidCredentials = shared.ErrUnauthorized.WithMessage("Invalid email or password")
	ErrEmailTaken         = shared.ErrAlreadyExists.WithMessage("An account with this email already exists")
)

// Account is a vendor or consumer login. The role decides which table stores it.
type Account struct {
	ID           string `gorm:"type:varchar(64);primaryKey"`
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(100);not null"`
	Role         Role   `gorm:"-"`
	CreatedAt    time.Time
}

// NewAccount validates the credentials and hashes the password
func NewAccount(role Role, email, password string) (*Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !role.Valid() {
		return nil, ErrUnknownRole
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}, nil
}

// VerifyPassword reports whether password matches the stored hash
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeEmail lowercases and trims an email for lookups
func NormalizeEmail(email string) string {
	return normalizeEmail(email)
}
