package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const targetKey = "router.target"

// Middleware runs the navigation pipeline for page requests. A redirected
// navigation answers 302 to where it landed; otherwise the landing target is
// stored on the context for the page handler.
func Middleware(r *Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested, err := ParseLocation(c.Request.URL.RequestURI())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
			return
		}

		landed, err := r.push(c.Request.Context(), requested)
		if err != nil {
			if errors.Is(err, ErrRedirectLoop) {
				c.AbortWithStatusJSON(http.StatusLoopDetected, gin.H{"error": "redirect loop"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "navigation failed"})
			return
		}

		if landed.String() != requested.String() {
			c.Redirect(http.StatusFound, landed.String())
			c.Abort()
			return
		}

		c.Set(targetKey, landed)
		c.Next()
	}
}

// TargetFrom returns the target stored by Middleware.
func TargetFrom(c *gin.Context) (Target, bool) {
	v, ok := c.Get(targetKey)
	if !ok {
		return Target{}, false
	}
	t, ok := v.(Target)
	return t, ok
}
