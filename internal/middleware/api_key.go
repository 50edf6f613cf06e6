package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vayupay/vayupay-backend/internal/common"
	"github.com/vayupay/vayupay-backend/internal/domain"
)

const merchantContextKey = "merchant"

// Authenticator resolves a raw API key to its merchant
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*domain.Merchant, error)
}

// APIKeyAuth returns a gin middleware that authenticates requests by
// API key. Keys are accepted in the X-API-Key header or as a Bearer
// token; the resolved merchant is stored in the request context.
func APIKeyAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := c.GetHeader("X-API-Key")
		if rawKey == "" {
			if bearer := c.GetHeader("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
				rawKey = strings.TrimPrefix(bearer, "Bearer ")
			}
		}

		merchant, err := auth.Authenticate(c.Request.Context(), rawKey)
		if err != nil {
			common.ErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(merchantContextKey, merchant)
		c.Set("merchant_id", merchant.ID)
		c.Next()
	}
}

// GetMerchant returns the authenticated merchant from the request context
func GetMerchant(c *gin.Context) *domain.Merchant {
	v, ok := c.Get(merchantContextKey)
	if !ok {
		return nil
	}
	merchant, ok := v.(*domain.Merchant)
	if !ok {
		return nil
	}
	return merchant
}

// GetMerchantID returns the authenticated merchant's ID, or ""
func GetMerchantID(c *gin.Context) string {
	return c.GetString("merchant_id")
}
