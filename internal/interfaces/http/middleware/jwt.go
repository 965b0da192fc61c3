package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/infrastructure/auth"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys. user_id and role are also read by the request logger.
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "user_id"
	JWTRoleKey    = "role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is checked for signed-out tokens when set
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig returns a config that authenticates every request
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{JWTService: jwtService}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config.
// A failed blacklist lookup is logged and the token accepted.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		if cfg.TokenBlacklist != nil && claims.ID != "" {
			revoked, err := cfg.TokenBlacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
				}
			case revoked:
				handleAuthError(c, cfg, auth.ErrTokenBlacklisted)
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuthMiddleware extracts claims when a valid token is present and never rejects
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}
		if claims, err := jwtService.ValidateAccessToken(tokenString); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r.String()] = true
		names = append(names, r.String())
	}
	message := "Only " + strings.Join(names, " or ") + " accounts can perform this action"

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, message, GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header == "" || !strings.HasPrefix(header, BearerPrefix) {
		return "", errMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

var errMissingToken = errors.New("missing bearer token")

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTRoleKey, claims.Role)
	c.Request = c.Request.WithContext(logger.WithIdentity(c.Request.Context(), claims.UserID, claims.Role))
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Debug("JWT authentication failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenInvalid, "Token has been revoked"
	case errors.Is(err, errMissingToken):
	default:
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves the claims stored by the JWT middleware
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the account id of the caller
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole retrieves the role of the caller
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}
