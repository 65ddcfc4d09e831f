package guard

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/models"
)

const resolvedUserKey = "guard.user"

// Resolver validates the session behind a token store
type Resolver interface {
	Resolve(ctx context.Context, store auth.TokenStore, cookies ...*http.Cookie) *models.User
}

// StoreFunc returns the token store for the current request
type StoreFunc func(c *gin.Context) auth.TokenStore

// Guard re-validates the session on every navigation to a protected prefix
// and enforces the prefix's required role.
type Guard struct {
	rules    Rules
	resolver Resolver
	store    StoreFunc
	logger   zerolog.Logger
}

// New creates a route guard
func New(rules Rules, resolver Resolver, store StoreFunc, logger zerolog.Logger) *Guard {
	return &Guard{rules: rules, resolver: resolver, store: store, logger: logger}
}

// Rules returns the rules the guard enforces
func (g *Guard) Rules() Rules {
	return g.rules
}

// Middleware returns the gin handler enforcing the rules
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.Request.URL.Path

		decision, required := g.rules.Classify(requested)
		if decision != Guarded {
			c.Next()
			return
		}

		user := g.resolver.Resolve(c.Request.Context(), g.store(c), auth.ForwardedCookies(c.Request)...)
		if user == nil {
			g.logger.Debug().Str("path", requested).Msg("No session, redirecting to login")
			c.Redirect(http.StatusFound, g.LoginURL(requested))
			c.Abort()
			return
		}

		if !user.Role.Satisfies(required) {
			g.logger.Warn().
				Int64("user_id", user.ID).
				Str("role", user.Role.String()).
				Str("required", required.String()).
				Str("path", requested).
				Msg("Role mismatch")
			c.Redirect(http.StatusFound, g.rules.UnauthorizedPath)
			c.Abort()
			return
		}

		c.Set(resolvedUserKey, user)
		c.Next()
	}
}

// LoginURL builds the login redirect carrying the originally requested path
func (g *Guard) LoginURL(requested string) string {
	q := url.Values{}
	q.Set("redirect", requested)
	return g.rules.LoginPath + "?" + q.Encode()
}

// ResolvedUser returns the identity the guard validated for this request
func ResolvedUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(resolvedUserKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
