package auth

import (
	"errors"
	"sync"

	"github.com/masjidku/masjidku-web/internal/models"
)

// ErrNoToken is returned by LoadToken when nothing is persisted
var ErrNoToken = errors.New("not authenticated")

// TokenStore defines the interface for token storage operations. A store is
// scoped to one client: one browser (cookie) or one backend (keyring).
type TokenStore interface {
	// SaveToken persists the bearer token together with the coarse role string
	SaveToken(token string, role models.Role) error
	// LoadToken returns the persisted token or ErrNoToken
	LoadToken() (string, error)
	// DeleteToken removes token and role. Deleting nothing is not an error.
	DeleteToken() error
}

// MemoryStore keeps the token in process memory. The CLI uses it when a
// token is supplied through the environment.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	role  models.Role
}

// NewMemoryStore returns a store pre-seeded with token (may be empty)
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) SaveToken(token string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role = token, role
	return nil
}

func (m *MemoryStore) LoadToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *MemoryStore) DeleteToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role = "", ""
	return nil
}
