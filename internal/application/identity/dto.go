package identity

import (
	"time"

	"github.com/medico/backend/internal/domain/identity"
)

// SignUpInput carries a registration form
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// SignInInput carries a sign-in form
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// SignOutInput identifies the tokens to revoke. RefreshToken is optional.
type SignOutInput struct {
	AccessTokenID  string
	AccessTokenTTL time.Duration
	RefreshToken   string
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is returned by sign-up and sign-in
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
}

func toUserInfo(a *identity.Account) UserInfo {
	return UserInfo{ID: a.ID, Email: a.Email, Role: a.Role.String(), CreatedAt: a.CreatedAt}
}
