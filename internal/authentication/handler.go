package authentication

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
}

// LoginRequest is the payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	router  gin.IRouter
	service AuthenticationService
	logger  *zap.Logger
}

// NewAuthHandler registers auth endpoints on the given router. accessGate
// guards logout; refresh is guarded by the refresh-token gate.
func NewAuthHandler(router gin.IRouter, service AuthenticationService, accessGate gin.HandlerFunc, logger *zap.Logger) *AuthHandler {
	h := &AuthHandler{router: router, service: service, logger: logger}
	h.router.POST("/auth/register", h.Register)
	h.router.POST("/auth/login", h.Login)
	h.router.POST("/auth/logout", accessGate, h.Logout)
	h.router.POST("/auth/refresh", RefreshMiddleware(service, logger), h.Refresh)
	return h
}

// Register godoc
// @Summary      Register
// @Description  Create an account and issue tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      RegisterRequest  true  "Registration payload"
// @Success      201      {object}  Tokens
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid register payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email, password or name"})
		return
	}
	tokens, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tokens)
}

// Login godoc
// @Summary      Login
// @Description  Authenticate user and issue tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  Tokens
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or password format"})
		return
	}
	tokens, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the refresh token issued alongside the presented access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.service.Logout(c.Request.Context(), identity.ID, identity.TokenID); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Refresh godoc
// @Summary      Refresh Token
// @Description  Consume a refresh token (sent as the bearer token) and issue a new pair
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Tokens
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	tokens, err := h.service.RefreshTokens(c.Request.Context(), identity.ID, identity.TokenID)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
