package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// logoutTimeout caps the best-effort backend logout call
const logoutTimeout = 5 * time.Second

// SessionResolver resolves the identity behind a store's token
type SessionResolver interface {
	Resolve(ctx context.Context, store TokenStore, cookies ...*http.Cookie) *models.User
}

// LogoutNotifier revokes a token on the backend
type LogoutNotifier interface {
	Logout(ctx context.Context, creds backend.Credentials) error
}

// State is a snapshot of the session for rendering
type State struct {
	User    *models.User
	Loading bool
}

// Authenticated reports whether a user is present
func (s State) Authenticated() bool {
	return s.User != nil
}

// Session is the auth context: the single holder of {user, loading} for one
// client scope, plus Login and Logout. Build one per scope and pass it down;
// it is never shared through package state.
type Session struct {
	// op serializes Init/Seed/Login/Logout so token and user change together
	op sync.Mutex
	mu sync.RWMutex

	store    TokenStore
	resolver SessionResolver
	notifier LogoutNotifier
	cookies  []*http.Cookie
	logger   zerolog.Logger
	observer func(State)

	user        *models.User
	loading     bool
	initialized bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithForwardedCookies attaches backend cookies to every call the session makes
func WithForwardedCookies(cookies []*http.Cookie) SessionOption {
	return func(s *Session) {
		s.cookies = cookies
	}
}

// WithObserver registers a callback invoked after every state transition.
// The callback must not call back into the session.
func WithObserver(fn func(State)) SessionOption {
	return func(s *Session) {
		s.observer = fn
	}
}

// NewSession creates a session in its initial state: no user, loading.
func NewSession(store TokenStore, resolver SessionResolver, notifier LogoutNotifier, logger zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		loading:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init performs the one implicit session check. Later calls are no-ops.
func (s *Session) Init(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	if s.initialized {
		return
	}
	s.initialized = true

	user := s.resolver.Resolve(ctx, s.store, s.cookies...)
	s.set(user, false)
}

// Seed adopts an identity already resolved for this request (by the route
// guard) instead of resolving again. It is a no-op after Init.
func (s *Session) Seed(user *models.User) {
	s.op.Lock()
	defer s.op.Unlock()

	if s.initialized {
		return
	}
	s.initialized = true
	s.set(user, false)
}

// Login persists the token and publishes the user. Loading is reset on every
// exit path.
func (s *Session) Login(ctx context.Context, user *models.User, token string) error {
	if user == nil || token == "" {
		return errors.New("login requires a user and a token")
	}

	s.op.Lock()
	defer s.op.Unlock()

	s.setLoading(true)
	defer func() {
		s.initialized = true
		s.setLoading(false)
	}()

	if err := s.store.SaveToken(token, user.Role); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// Logout notifies the backend on a best-effort basis, then clears the token
// and the user locally. If the token cannot be removed the user is kept too,
// so the two never disagree. Callers navigate to the login page afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	token, err := s.store.LoadToken()
	if err == nil && token != "" && s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
		if nerr := s.notifier.Logout(notifyCtx, backend.Credentials{Token: token, Cookies: s.cookies}); nerr != nil {
			s.logger.Warn().Err(nerr).Msg("Backend logout failed, logging out locally")
		}
		cancel()
	}

	if err := s.store.DeleteToken(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

// User returns the current user snapshot or nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether an operation is in progress
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns a consistent snapshot
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.user, Loading: s.loading}
}

// Token returns the persisted bearer token for feature views, or "".
func (s *Session) Token() string {
	token, err := s.store.LoadToken()
	if err != nil {
		return ""
	}
	return token
}

// Credentials builds backend credentials from the persisted token
func (s *Session) Credentials() backend.Credentials {
	return backend.Credentials{Token: s.Token(), Cookies: s.cookies}
}

func (s *Session) set(user *models.User, loading bool) {
	s.mu.Lock()
	s.user = user
	s.loading = loading
	state := State{User: s.user, Loading: s.loading}
	s.mu.Unlock()
	s.notify(state)
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	state := State{User: s.user, Loading: s.loading}
	s.mu.Unlock()
	s.notify(state)
}

func (s *Session) notify(state State) {
	if s.observer != nil {
		s.observer(state)
	}
}
