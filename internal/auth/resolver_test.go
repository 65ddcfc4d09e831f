package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// mockMeServer answers /api/me for a single valid token
func mockMeServer(t *testing.T, validToken string, hits *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/api/me" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		if ck, err := r.Cookie("laravel_session"); err != nil || ck.Value != "abc" {
			t.Errorf("expected forwarded laravel_session cookie")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user":{"id":3,"name":"Siti","email":"siti@masjid.test","role":"admin"}}`))
	}))
}

func TestResolver_NoTokenNoNetwork(t *testing.T) {
	var hits int32
	srv := mockMeServer(t, "good", &hits)
	defer srv.Close()

	r := NewResolver(backend.New(srv.URL, zerolog.Nop()), zerolog.Nop())
	user := r.Resolve(context.Background(), NewMemoryStore(""))

	assert.Nil(t, user)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestResolver_ValidToken(t *testing.T) {
	var hits int32
	srv := mockMeServer(t, "good", &hits)
	defer srv.Close()

	r := NewResolver(backend.New(srv.URL, zerolog.Nop()), zerolog.Nop())
	user := r.Resolve(context.Background(), NewMemoryStore("good"), &http.Cookie{Name: "laravel_session", Value: "abc"})

	require.NotNil(t, user)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestResolver_RejectedTokenIsCleared(t *testing.T) {
	var hits int32
	srv := mockMeServer(t, "good", &hits)
	defer srv.Close()

	store := NewMemoryStore("expired")
	r := NewResolver(backend.New(srv.URL, zerolog.Nop()), zerolog.Nop())

	assert.Nil(t, r.Resolve(context.Background(), store, &http.Cookie{Name: "laravel_session", Value: "abc"}))
	_, err := store.LoadToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestResolver_NetworkFailureIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewMemoryStore("good")
	r := NewResolver(backend.New(url, zerolog.Nop()), zerolog.Nop())

	assert.Nil(t, r.Resolve(context.Background(), store))
	_, err := store.LoadToken()
	assert.ErrorIs(t, err, ErrNoToken)
}
