package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/application/identity"
	"github.com/medico/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles vendor and consumer authentication
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SignOutRequest optionally carries the refresh token to revoke with the access token
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOutResponse confirms a sign-out
type SignOutResponse struct {
	Message string `json:"message"`
}

// SignUp godoc
// @Summary      Create an account
// @Description  Create a vendor or consumer account and sign it in. Missing email or password is "Please fill all fields".
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.SignUpInput true "Sign-up request"
// @Success      201 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req identity.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// SignIn godoc
// @Summary      Sign in
// @Description  Authenticate with email, password and account type
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.SignInInput true "Sign-in request"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req identity.SignInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me godoc
// @Summary      Current user
// @Description  Return the signed-in account
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), claims.Role, claims.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// SignOut godoc
// @Summary      Sign out
// @Description  Revoke the current access token and, when given, the refresh token. The body is optional.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignOutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response{data=SignOutResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SignOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	err := h.authService.SignOut(c.Request.Context(), identity.SignOutInput{
		AccessTokenID:  claims.ID,
		AccessTokenTTL: claims.RemainingTTL(),
		RefreshToken:   req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SignOutResponse{Message: "Signed out successfully"})
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=auth.TokenPair}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pair)
}
