package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zalando/go-keyring"

	"github.com/masjidku/masjidku-web/internal/models"
)

const (
	service = "masjidku-cli"
)

// KeyringStore persists the token in the OS keychain/credential manager,
// one entry per backend host.
type KeyringStore struct {
	host string
}

// NewKeyringStore returns a store keyed by the backend URL's host
func NewKeyringStore(backendURL string) *KeyringStore {
	host := backendURL
	if u, err := url.Parse(backendURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return &KeyringStore{host: host}
}

// getKeyringKey returns a unique key for storing values per backend
func (k *KeyringStore) getKeyringKey(kind string) string {
	return fmt.Sprintf("%s-%s", kind, k.host)
}

// SaveToken persists the bearer token and role
func (k *KeyringStore) SaveToken(token string, role models.Role) error {
	if err := keyring.Set(service, k.getKeyringKey("token"), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := keyring.Set(service, k.getKeyringKey("role"), role.String()); err != nil {
		return fmt.Errorf("failed to save role: %w", err)
	}
	return nil
}

// LoadToken retrieves the bearer token
func (k *KeyringStore) LoadToken() (string, error) {
	token, err := keyring.Get(service, k.getKeyringKey("token"))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token and role
func (k *KeyringStore) DeleteToken() error {
	for _, kind := range []string{"token", "role"} {
		if err := keyring.Delete(service, k.getKeyringKey(kind)); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue // Already deleted
			}
			return fmt.Errorf("failed to delete %s: %w", kind, err)
		}
	}
	return nil
}
