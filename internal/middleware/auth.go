package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/iredox10/kano-market-price/utils"
	"github.com/sirupsen/logrus"
)

const (
	ContextIdentity = "identity"
	ContextUserID   = "userId"
)

// AuthMiddleware resolves the bearer token into a caller identity.
func AuthMiddleware(provider domain.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Authorization header is required"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Authorization header must be Bearer token"))
			return
		}

		identity, err := provider.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			status := utils.StatusFor(err)
			if status >= http.StatusInternalServerError {
				logrus.WithError(err).WithField("requestId", RequestID(c)).Error("Failed to resolve caller identity")
			}
			c.AbortWithStatusJSON(status, utils.ErrorResponse(err.Error()))
			return
		}

		c.Set(ContextIdentity, *identity)
		c.Set(ContextUserID, identity.UserID)
		c.Next()
	}
}

// RequireCapability rejects callers that lack capability.
func RequireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Identity not found in context"))
			return
		}
		if !identity.Has(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse("You do not have permission to access this resource"))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(ContextIdentity)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
