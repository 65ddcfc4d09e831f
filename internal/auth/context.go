package auth

import (
	"github.com/gin-gonic/gin"
)

const sessionContextKey = "auth.session"

// SetSession attaches the request's session to the gin context
func SetSession(c *gin.Context, s *Session) {
	c.Set(sessionContextKey, s)
}

// GetSession returns the request's session if one was provided
func GetSession(c *gin.Context) (*Session, bool) {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// MustSession returns the request's session. Reaching a handler that needs a
// session without the provider middleware is a wiring bug, so it panics.
func MustSession(c *gin.Context) *Session {
	s, ok := GetSession(c)
	if !ok {
		panic("auth: no session in context; is the session provider middleware installed?")
	}
	return s
}
