package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/brioso-market/internal/middleware"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/service"
)

const storefrontKey = "storefront"

// RequireSession opens the storefront named by the token and rejects the
// request when that session no longer holds the token's user.
func RequireSession(market *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		sf, err := market.Open(c.Request.Context(), middleware.GetSessionID(c))
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !sf.Authenticated() || sf.User().ID != middleware.GetUserID(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.Set(storefrontKey, sf)
		c.Next()
	}
}

// OptionalSession opens the token's storefront, or an anonymous one.
func OptionalSession(market *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := middleware.GetSessionID(c)
		if sid == "" {
			sid = uuid.NewString()
		}
		sf, err := market.Open(c.Request.Context(), sid)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(storefrontKey, sf)
		c.Next()
	}
}

func storefront(c *gin.Context) *service.Storefront {
	v, _ := c.Get(storefrontKey)
	sf, _ := v.(*service.Storefront)
	return sf
}

// respondError maps service and repository errors to a status code. The
// message is the one the storefront recorded.
func respondError(c *gin.Context, err error) {
	var purchaseErr *repository.PurchaseError
	switch {
	case errors.As(err, &purchaseErr):
		c.JSON(http.StatusConflict, gin.H{"error": service.Message(err), "failed_items": purchaseErr.FailedItems})
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.Message(err)})
	case errors.Is(err, service.ErrNotProductOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": service.Message(err)})
	case errors.Is(err, repository.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.Message(err)})
	case errors.Is(err, service.ErrUserAlreadyExists), errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, repository.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": service.Message(err)})
	case service.IsUserError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.Message(err)})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
