package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Session is the part of the session store the guards read.
type Session interface {
	IsLoggedIn() bool
}

// RequireSignedIn rejects calls made before the console holds an access token.
func RequireSignedIn(s Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.IsLoggedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.Next()
	}
}
