package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

const (
	// SessionCookieName is the cookie carrying the opaque session identifier.
	SessionCookieName = "sessionid"

	accountContextKey = "account"
)

// RequireSession resolves the session cookie to an account and aborts with
// 401 when no live session is attached to the request.
func RequireSession(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		account, err := auth.CurrentAccount(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(accountContextKey, *account)
		c.Next()
	}
}

// CurrentAccount retrieves the account placed in the context by RequireSession.
func CurrentAccount(c *gin.Context) (domain.Account, bool) {
	raw, exists := c.Get(accountContextKey)
	if !exists {
		return domain.Account{}, false
	}
	account, ok := raw.(domain.Account)
	return account, ok
}
