package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/infrastructure/auth"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "medico-test",
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService, role identity.Role) (*auth.TokenPair, auth.Subject) {
	t.Helper()
	sub := auth.Subject{UserID: uuid.NewString(), Email: "buyer@example.com", Role: role.String()}
	pair, err := jwtService.GenerateTokenPair(sub)
	require.NoError(t, err)
	return pair, sub
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService, identity.RoleConsumer)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, sub.UserID, claims.UserID)
		assert.Equal(t, sub.UserID, GetJWTUserID(c))
		assert.Equal(t, "consumer", GetJWTRole(c))
		assert.Equal(t, sub.UserID, logger.GetUserID(c.Request.Context()))
		assert.Equal(t, "consumer", logger.GetRole(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	rec := serve(router, BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, identity.RoleVendor)

	expired := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "medico-test",
	})
	expiredPair, err := expired.GenerateTokenPair(auth.Subject{UserID: uuid.NewString(), Role: "vendor"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", dto.ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token used as access", BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expiredPair.AccessToken, dto.ErrCodeTokenExpired},
	}

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.SkipPaths = []string{"/test"}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "").Code)
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, identity.RoleConsumer)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, BearerPrefix+pair.AccessToken).Code)

	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))
	rec := serve(router, BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, rec))
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error { return nil }
func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestJWTAuthMiddleware_BlacklistErrorFailsOpen(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService, identity.RoleConsumer)

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = failingBlacklist{}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, BearerPrefix+pair.AccessToken).Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatus(http.StatusTeapot)
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusTeapot, serve(router, "").Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, sub := newTestTokenPair(t, jwtService, identity.RoleConsumer)

	var userID string
	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		userID = GetJWTUserID(c)
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no token", "", ""},
		{"invalid token", "Bearer nope", ""},
		{"valid token", BearerPrefix + pair.AccessToken, sub.UserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID = ""
			rec := serve(router, tt.header)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, userID)
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtService := newTestJWTService()
	vendor, _ := newTestTokenPair(t, jwtService, identity.RoleVendor)
	consumer, _ := newTestTokenPair(t, jwtService, identity.RoleConsumer)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), RequireRole(identity.RoleVendor))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, BearerPrefix+vendor.AccessToken).Code)

	rec := serve(router, BearerPrefix+consumer.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, rec))
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	router := gin.New()
	router.Use(RequireRole(identity.RoleVendor))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTRole(c))
}
