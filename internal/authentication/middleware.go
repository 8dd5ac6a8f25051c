package authentication

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/session-rotation-service/internal/apperror"
	"github.com/mehmetcc/session-rotation-service/internal/user"
	"github.com/mehmetcc/session-rotation-service/internal/utils"
)

// ContextIdentityKey is the key under which the authenticated Identity is stored in Gin context.
const ContextIdentityKey = "identity"

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AccessMiddleware authenticates regular API calls with an access token.
func AccessMiddleware(userService user.UserService, accessSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token not found"})
			return
		}

		claims, err := utils.ParseAccessToken(rawToken, accessSecret)
		if err != nil {
			logger.Debug("access token parse failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		account, err := userService.ReadUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			logger.Error("failed to load user by ID", zap.Error(err), zap.String("userID", claims.Subject))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not validate user"})
			return
		}

		c.Set(user.ContextUserKey, account)
		c.Set(ContextIdentityKey, &Identity{
			ID:      account.ID,
			Email:   account.Email,
			Role:    string(account.Role),
			TokenID: claims.TokenID,
		})
		c.Next()
	}
}

// RefreshMiddleware admits a request only if its bearer refresh token passes
// every validation gate, and injects the resolved Identity.
func RefreshMiddleware(service AuthenticationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c)
		if !ok {
			abortWithError(c, logger, ErrRefreshTokenNotFound)
			return
		}

		identity, err := service.ValidateRefreshToken(c.Request.Context(), rawToken)
		if err != nil {
			logger.Debug("refresh token rejected", zap.Error(err))
			abortWithError(c, logger, err)
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// RoleMiddleware must run after AccessMiddleware.
func RoleMiddleware(requiredRole user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if user.Role(identity.Role) != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	raw, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := raw.(*Identity)
	return identity, ok
}

// abortWithError renders domain errors with their own status and message and
// hides everything else behind a logged 500.
func abortWithError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.Internal {
		c.AbortWithStatusJSON(apperror.HTTPStatus(appErr.Kind), gin.H{"error": appErr.Message})
		return
	}
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
