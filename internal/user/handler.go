package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextUserKey is the key under which the authenticated Account is stored in Gin context.
const ContextUserKey = "user"

// IDRequest represents a URI ID parameter.
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// UserHandler handles HTTP requests for user resources.
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// RegisterSelf mounts the routes any authenticated user may call.
func (h *UserHandler) RegisterSelf(router gin.IRoutes) {
	router.GET("/users/me", h.ReadCurrentUser)
}

// RegisterAdmin mounts the routes reserved for admins.
func (h *UserHandler) RegisterAdmin(router gin.IRoutes) {
	router.GET("/users/:id", h.ReadUserByID)
	router.DELETE("/users/:id", h.DeleteUserByID)
}

// ReadCurrentUser returns the authenticated user from context.
// @Summary      Get current user
// @Description  Fetch the "me" record for the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Account
// @Failure      401 {object} map[string]string
// @Router       /users/me [get]
func (h *UserHandler) ReadCurrentUser(c *gin.Context) {
	account, ok := CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// ReadUserByID godoc
// @Summary      Get user by ID
// @Description  Fetch a user by id (admin only)
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Account
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) ReadUserByID(c *gin.Context) {
	var uri IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing id"})
		return
	}
	account, err := h.service.ReadUserByID(c.Request.Context(), uri.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, account)
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.logger.Error("service.ReadUserByID failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch user"})
	}
}

// DeleteUserByID godoc
// @Summary      Delete user
// @Description  Delete a user and every session they hold (admin only)
// @Tags         users
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUserByID(c *gin.Context) {
	var uri IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing id"})
		return
	}
	err := h.service.DeleteUser(c.Request.Context(), uri.ID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.logger.Error("service.DeleteUser failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
	}
}

// CurrentAccount returns the Account placed in context by the access gate.
func CurrentAccount(c *gin.Context) (*Account, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	account, ok := raw.(*Account)
	return account, ok
}
