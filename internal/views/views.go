// Package views holds the dashboard feature views. Each view owns its own
// loading/error/data state, fetches through a sequence guard and maps backend
// failures onto banners and form field errors.
package views

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/backend"
)

// Deps are shared by every feature view
type Deps struct {
	Client    *backend.Client
	Source    CredentialSource
	Validator *Validator
	Logger    zerolog.Logger
}

func (d Deps) logger(view string) zerolog.Logger {
	return d.Logger.With().Str("view", view).Logger()
}

// ParseID reads a numeric path or form id
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
