package views

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, r.Method+" "+r.URL.Path)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func usersBackend(t *testing.T) (http.Handler, *callLog) {
	calls := &callLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		_, _ = w.Write([]byte(`{"data":{"data":[{"id":1,"name":"Admin","role":"admin"},{"id":2,"name":"Budi","role":"warga"}],"current_page":1,"last_page":1,"total":2}}`))
	})
	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		calls.add(r)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPut:
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"role":"takmir"}`, string(raw))
			_, _ = w.Write([]byte(`{"data":{"id":2,"name":"Budi","role":"takmir"}}`))
		}
	})
	return mux, calls
}

func TestUsers_Delete(t *testing.T) {
	handler, calls := usersBackend(t)
	u := NewUsers(newDeps(t, handler), 1)
	require.NoError(t, u.Load(context.Background(), backend.ListParams{}))
	require.Len(t, u.List.State().Items(), 2)

	assert.ErrorIs(t, u.Delete(context.Background(), 1, true), ErrSelfDelete)
	assert.NotEmpty(t, u.List.State().Error)

	require.NoError(t, u.Delete(context.Background(), 2, true))
	items := u.List.State().Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, []string{"GET /api/users", "DELETE /api/users/2"}, calls.all())
}

func TestUsers_UpdateRole(t *testing.T) {
	handler, _ := usersBackend(t)
	u := NewUsers(newDeps(t, handler), 1)
	require.NoError(t, u.Load(context.Background(), backend.ListParams{}))

	form := u.UpdateRole(context.Background(), 2, map[string]string{"role": "takmir"})
	require.False(t, form.HasErrors(), "%+v", form)
	assert.Equal(t, models.RoleTakmir, u.List.State().Items()[1].Role)

	form = u.UpdateRole(context.Background(), 2, map[string]string{"role": "imam"})
	assert.NotEmpty(t, form.FieldError("role"))

	form = u.UpdateRole(context.Background(), 1, map[string]string{"role": "warga"})
	assert.NotEmpty(t, form.FieldError("role"))
}
