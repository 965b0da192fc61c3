package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/identity"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/auth"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"github.com/medico/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	identity.HashCost = bcrypt.MinCost
}

// asUser simulates the JWT middleware for an authenticated caller
func asUser(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID, Role: role, TokenType: auth.TokenTypeAccess})
		c.Set(middleware.JWTUserIDKey, userID)
		c.Set(middleware.JWTRoleKey, role)
		c.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from middleware",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", shared.ErrNotFound.WithMessage("Medicine not found"), http.StatusNotFound, dto.ErrCodeNotFound, "Medicine not found"},
		{"already exists", identity.ErrEmailTaken, http.StatusConflict, dto.ErrCodeAlreadyExists, identity.ErrEmailTaken.Message},
		{"invalid input", identity.ErrMissingFields, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Please fill all fields"},
		{"unauthorized", identity.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrCodeUnauthorized, identity.ErrInvalidCredentials.Message},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden, shared.ErrForbidden.Message},
		{"invalid selection", checkout.ErrInvalidSelection, http.StatusBadRequest, dto.ErrCodeInvalidSelection, "Invalid medicine selection"},
		{"wrapped domain error", fmt.Errorf("toggle: %w", checkout.ErrInvalidSelection), http.StatusBadRequest, dto.ErrCodeInvalidSelection, "Invalid medicine selection"},
		{"processor error", checkout.ErrProcessor.Wrap(errors.New("stripe down")), http.StatusInternalServerError, dto.ErrCodeProcessor, "Failed to create payment session"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, nil)
	assert.False(t, c.Writer.Written())
}

func TestBaseHandler_SuccessList(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessList(c, []string{"a", "b"}, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
}
