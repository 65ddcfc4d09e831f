package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/guard"
	"github.com/masjidku/masjidku-web/internal/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	tokenStoreKey   = "auth.store"
)

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrForbidden       = errors.New("role not permitted")
)

// requestIDMiddleware tags every request with a sortable id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// tokenStore returns the request's cookie store, creating it once so the
// guard, the session and the handlers all see the same writes.
func (s *Server) tokenStore(c *gin.Context) auth.TokenStore {
	if v, exists := c.Get(tokenStoreKey); exists {
		if store, ok := v.(*auth.CookieStore); ok {
			return store
		}
	}
	store := auth.NewCookieStore(c.Writer, c.Request, s.codec, s.config.Session.CookieSecure)
	c.Set(tokenStoreKey, store)
	return store
}

// sessionProvider builds the request's auth context. When the route guard
// already validated the session it is adopted as-is; otherwise the one
// implicit check runs here, before any handler renders.
func (s *Server) sessionProvider() gin.HandlerFunc {
	return func(c *gin.Context) {
		if decision, _ := s.guard.Rules().Classify(c.Request.URL.Path); decision == guard.Static {
			c.Next()
			return
		}

		logger := s.logger.With().Str("request_id", requestID(c)).Logger()
		session := auth.NewSession(s.tokenStore(c), s.resolver, s.client, logger,
			auth.WithForwardedCookies(auth.ForwardedCookies(c.Request)))

		if user, ok := guard.ResolvedUser(c); ok {
			session.Seed(user)
		} else {
			session.Init(c.Request.Context())
		}

		auth.SetSession(c, session)
		c.Next()
	}
}

// requireRole is the single role check every dashboard shell goes through
func requireRole(c *gin.Context, role models.Role) (*models.User, error) {
	user := auth.MustSession(c).User()
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.Role.Satisfies(role) {
		return user, ErrForbidden
	}
	return user, nil
}

// roleGate aborts requests whose user does not hold role
func (s *Server) roleGate(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := requireRole(c, role)
		switch {
		case errors.Is(err, ErrUnauthenticated):
			c.Redirect(http.StatusFound, s.guard.LoginURL(c.Request.URL.Path))
			c.Abort()
			return
		case errors.Is(err, ErrForbidden):
			s.logger.Warn().
				Int64("user_id", user.ID).
				Str("role", user.Role.String()).
				Str("required", role.String()).
				Str("path", c.Request.URL.Path).
				Msg("Role mismatch")
			c.Redirect(http.StatusFound, s.guard.Rules().UnauthorizedPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
