package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// MeFetcher is the backend "who am I" call
type MeFetcher interface {
	Me(ctx context.Context, creds backend.Credentials) (*models.User, error)
}

// Resolver turns a persisted token into a User, or nil when the session is
// not authenticated.
type Resolver struct {
	backend MeFetcher
	logger  zerolog.Logger
}

// NewResolver creates a session resolver
func NewResolver(me MeFetcher, logger zerolog.Logger) *Resolver {
	return &Resolver{backend: me, logger: logger}
}

// Resolve asks the backend who owns the token in store. No token means no
// network call. Any failure, transport or authentication, yields nil and
// removes the persisted token so it is not retried.
func (r *Resolver) Resolve(ctx context.Context, store TokenStore, cookies ...*http.Cookie) *models.User {
	token, err := store.LoadToken()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			r.logger.Warn().Err(err).Msg("Failed to load session token")
		}
		return nil
	}
	if token == "" {
		return nil
	}

	user, err := r.backend.Me(ctx, backend.Credentials{Token: token, Cookies: cookies})
	if err != nil {
		if backend.IsUnauthorized(err) {
			r.logger.Info().Err(err).Msg("Session rejected, clearing token")
		} else {
			r.logger.Warn().Err(err).Msg("Session check failed, clearing token")
		}
		if derr := store.DeleteToken(); derr != nil {
			r.logger.Error().Err(derr).Msg("Failed to clear rejected token")
		}
		return nil
	}

	return user
}
