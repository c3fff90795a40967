package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextUserKey is where the middleware stores the authenticated user.
const ContextUserKey = "identity.user"

// RequireAuth returns a gin middleware that verifies the bearer token on
// each request and aborts with 401/403 when it is missing or rejected.
func RequireAuth(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token"})
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrVerification) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication error"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// UserFrom returns the authenticated user stored by RequireAuth.
func UserFrom(c *gin.Context) (*User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*User)
	return user, ok
}
