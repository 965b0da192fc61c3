package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/auth"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Token failures surfaced to clients
var (
	ErrTokenInvalid = shared.ErrUnauthorized.WithMessage("Invalid or expired token")
	ErrTokenRevoked = shared.ErrUnauthorized.WithMessage("Token has been revoked")
)

// AuthService handles sign-up, sign-in, current user and sign-out for vendors and consumers
type AuthService struct {
	accounts        identity.AccountRepository
	jwtService      *auth.JWTService
	blacklist       auth.TokenBlacklist
	logger          *zap.Logger
	businessMetrics *telemetry.StorefrontMetrics
}

// NewAuthService creates a new authentication service. blacklist may be nil, which makes sign-out a no-op.
func NewAuthService(
	accounts identity.AccountRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		accounts:   accounts,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     log.Named("auth"),
	}
}

// SetBusinessMetrics sets the metrics recorder
func (s *AuthService) SetBusinessMetrics(m *telemetry.StorefrontMetrics) {
	s.businessMetrics = m
}

// SignUp creates an account in the role's table and signs it in.
// Missing fields are reported before an unknown role; neither touches storage.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, identity.ErrMissingFields
	}
	role, err := identity.ParseRole(input.UserType)
	if err != nil {
		return nil, err
	}

	account, err := identity.NewAccount(role, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, identity.ErrEmailTaken
		}
		logger.Enrich(ctx, s.logger).Error("Failed to create account", zap.String("role", role.String()), zap.Error(err))
		return nil, err
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordSignUp(ctx, role.String())
	}
	logger.Enrich(ctx, s.logger).Info("Account created",
		zap.String("user_id", account.ID),
		zap.String("role", role.String()),
	)
	return s.issue(account)
}

// SignIn verifies credentials against the role's table. Unknown emails and wrong
// passwords give the same ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, identity.ErrMissingFields
	}
	role, err := identity.ParseRole(input.UserType)
	if err != nil {
		return nil, err
	}
	log := logger.Enrich(ctx, s.logger)

	account, err := s.accounts.FindByEmail(ctx, role, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordSignIn(ctx, role, false)
			log.Warn("Sign-in for unknown account", zap.String("role", role.String()))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.VerifyPassword(input.Password) {
		s.recordSignIn(ctx, role, false)
		log.Warn("Invalid password attempt", zap.String("user_id", account.ID))
		return nil, identity.ErrInvalidCredentials
	}

	s.recordSignIn(ctx, role, true)
	log.Info("User signed in", zap.String("user_id", account.ID), zap.String("role", role.String()))
	return s.issue(account)
}

// CurrentUser loads the account behind a validated token
func (s *AuthService) CurrentUser(ctx context.Context, roleName, userID string) (*UserInfo, error) {
	role, err := identity.ParseRole(roleName)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	account, err := s.accounts.FindByID(ctx, role, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("User not found")
		}
		return nil, err
	}
	info := toUserInfo(account)
	return &info, nil
}

// SignOut revokes the access token and, when given, the refresh token
func (s *AuthService) SignOut(ctx context.Context, input SignOutInput) error {
	if s.blacklist == nil {
		return nil
	}
	if input.AccessTokenID != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.AccessTokenID, input.AccessTokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err != nil {
			// an already unusable refresh token needs no revocation
			return nil
		}
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			return err
		}
	}
	logger.Enrich(ctx, s.logger).Info("User signed out")
	return nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if s.blacklist != nil {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			logger.Enrich(ctx, s.logger).Warn("Failed to revoke used refresh token", zap.Error(err))
		}
	}
	return pair, nil
}

func (s *AuthService) issue(account *identity.Account) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID: account.ID,
		Email:  account.Email,
		Role:   account.Role.String(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  toUserInfo(account),
	}, nil
}

func (s *AuthService) recordSignIn(ctx context.Context, role identity.Role, ok bool) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSignIn(ctx, role.String(), ok)
	}
}
