package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/config"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/views"
)

// TokenEnv supplies a token without touching the keyring (CI, scripts)
const TokenEnv = "MASJIDKU_TOKEN"

var errNotLoggedIn = errors.New("not logged in. Please run 'masjidku login' first")

// App carries what every command needs for one invocation: the backend
// client, the token store and the auth context built on top of them.
type App struct {
	Out    io.Writer
	Logger zerolog.Logger

	// Confirm asks a yes/no question
	Confirm func(label string) (bool, error)
	// ReadPassword reads a secret without echoing it
	ReadPassword func(prompt string) (string, error)

	prayer    config.PrayerConfig
	client    *backend.Client
	store     auth.TokenStore
	session   *auth.Session
	validator *views.Validator
}

// NewApp creates an app writing to out with interactive prompts
func NewApp(out io.Writer, logger zerolog.Logger) *App {
	return &App{
		Out:          out,
		Logger:       logger,
		Confirm:      promptConfirm,
		ReadPassword: readPassword,
		validator:    views.NewValidator(),
	}
}

// Connect points the app at a backend. A nil store selects MASJIDKU_TOKEN
// when set, the OS keyring otherwise.
func (a *App) Connect(backendURL string, prayer config.PrayerConfig, store auth.TokenStore) {
	backendURL = strings.TrimRight(backendURL, "/")
	if store == nil {
		if token := os.Getenv(TokenEnv); token != "" {
			store = auth.NewMemoryStore(token)
		} else {
			store = auth.NewKeyringStore(backendURL)
		}
	}

	a.prayer = prayer
	a.client = backend.New(backendURL, a.Logger.With().Str("component", "backend").Logger())
	a.store = store
	a.session = auth.NewSession(store, auth.NewResolver(a.client, a.Logger), a.client, a.Logger)
}

// currentUser runs the session check once and fails when nobody is logged in
func (a *App) currentUser(ctx context.Context) (*models.User, error) {
	a.session.Init(ctx)
	user := a.session.User()
	if user == nil {
		return nil, errNotLoggedIn
	}
	return user, nil
}

// requireRole admits the current user when any of roles is satisfied
func (a *App) requireRole(ctx context.Context, roles ...models.Role) (*models.User, error) {
	user, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if user.Role.Satisfies(r) {
			return user, nil
		}
	}
	return nil, fmt.Errorf("this command is not available for role %s", user.Role.Label())
}

func (a *App) viewDeps() views.Deps {
	return views.Deps{
		Client:    a.client,
		Source:    a.session,
		Validator: a.validator,
		Logger:    a.Logger,
	}
}

// formError turns a failed form into a single error listing every field
func formError(form views.FormState) error {
	fields := make([]string, 0, len(form.FieldErrors))
	for f := range form.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	if form.Error != "" {
		b.WriteString(form.Error)
	} else {
		b.WriteString("invalid input")
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, form.FieldErrors[f])
	}
	return errors.New(b.String())
}
