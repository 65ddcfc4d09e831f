package views

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

type staticSource struct {
	creds backend.Credentials
}

func (s staticSource) Credentials() backend.Credentials {
	return s.creds
}

type item struct {
	ID   int64
	Name string
}

func itemID(i item) int64 { return i.ID }

func pageOf(items ...item) models.Page[item] {
	return models.Page[item]{Data: items, CurrentPage: 1, LastPage: 1, Total: len(items)}
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	first := s.Next()
	second := s.Next()

	applied := false
	assert.False(t, s.Commit(first, func() { applied = true }))
	assert.False(t, applied)

	assert.True(t, s.Commit(second, func() { applied = true }))
	assert.True(t, applied)
}

func TestListView_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[item], error) {
		if params.Page == 1 {
			close(started)
			<-release
			return pageOf(item{ID: 1, Name: "old"}), nil
		}
		return pageOf(item{ID: 2, Name: "new"}), nil
	}
	v := NewListView(staticSource{}, fetch, nil, itemID, zerolog.Nop())

	slow := make(chan error, 1)
	go func() {
		slow <- v.Load(context.Background(), backend.ListParams{Page: 1})
	}()
	<-started

	require.NoError(t, v.Load(context.Background(), backend.ListParams{Page: 2}))
	close(release)
	assert.ErrorIs(t, <-slow, ErrStale)

	st := v.State()
	require.Len(t, st.Items(), 1)
	assert.Equal(t, "new", st.Items()[0].Name)
	assert.False(t, st.Loading)
	assert.Equal(t, 2, st.Params.Page)
}

func TestListView_StaleErrorDoesNotOverwrite(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[item], error) {
		if params.Page == 1 {
			close(started)
			<-release
			return models.Page[item]{}, errors.New("connection reset")
		}
		return pageOf(item{ID: 2}), nil
	}
	v := NewListView(staticSource{}, fetch, nil, itemID, zerolog.Nop())

	slow := make(chan error, 1)
	go func() { slow <- v.Load(context.Background(), backend.ListParams{Page: 1}) }()
	<-started
	require.NoError(t, v.Load(context.Background(), backend.ListParams{Page: 2}))
	close(release)
	<-slow

	st := v.State()
	assert.Empty(t, st.Error)
	assert.Len(t, st.Items(), 1)
}

func TestListView_LoadFailureShowsGenericBanner(t *testing.T) {
	fetch := func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[item], error) {
		return models.Page[item]{}, &backend.APIError{Status: 500, Message: "SQLSTATE[42S02]"}
	}
	v := NewListView(staticSource{}, fetch, nil, itemID, zerolog.Nop())

	assert.Error(t, v.Load(context.Background(), backend.ListParams{}))
	st := v.State()
	assert.Equal(t, MsgLoadFailed, st.Error)
	assert.False(t, st.Loading)
}

func TestListView_Delete(t *testing.T) {
	loaded := pageOf(item{ID: 1}, item{ID: 2}, item{ID: 3})
	fetch := func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[item], error) {
		return loaded, nil
	}

	t.Run("requires confirmation", func(t *testing.T) {
		called := false
		v := NewListView(staticSource{}, fetch, func(ctx context.Context, creds backend.Credentials, id int64) error {
			called = true
			return nil
		}, itemID, zerolog.Nop())
		require.NoError(t, v.Load(context.Background(), backend.ListParams{}))

		assert.ErrorIs(t, v.Delete(context.Background(), 2, false), ErrNotConfirmed)
		assert.False(t, called)
		assert.Len(t, v.State().Items(), 3)
	})

	t.Run("success removes only that item", func(t *testing.T) {
		var mu sync.Mutex
		var gotToken string
		v := NewListView(staticSource{creds: backend.Bearer("tok")}, fetch, func(ctx context.Context, creds backend.Credentials, id int64) error {
			mu.Lock()
			defer mu.Unlock()
			gotToken = creds.Token
			return nil
		}, itemID, zerolog.Nop())
		require.NoError(t, v.Load(context.Background(), backend.ListParams{}))

		require.NoError(t, v.Delete(context.Background(), 2, true))
		st := v.State()
		assert.Equal(t, []item{{ID: 1}, {ID: 3}}, st.Items())
		assert.Equal(t, 2, st.Page.Total)
		assert.Empty(t, st.Error)
		assert.Equal(t, "tok", gotToken)
	})

	t.Run("failure keeps list and shows banner", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want string
		}{
			{"backend message", &backend.APIError{Status: http.StatusForbidden, Message: "Tidak diizinkan"}, "Tidak diizinkan"},
			{"transport", errors.New("dial tcp: refused"), MsgDeleteFailed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v := NewListView(staticSource{}, fetch, func(ctx context.Context, creds backend.Credentials, id int64) error {
					return tt.err
				}, itemID, zerolog.Nop())
				require.NoError(t, v.Load(context.Background(), backend.ListParams{}))

				assert.Error(t, v.Delete(context.Background(), 2, true))
				st := v.State()
				assert.Equal(t, loaded.Data, st.Items())
				assert.Equal(t, tt.want, st.Error)
			})
		}
	})
}

func TestListView_PrependAndReplace(t *testing.T) {
	fetch := func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[item], error) {
		return pageOf(item{ID: 1, Name: "a"}), nil
	}
	v := NewListView(staticSource{}, fetch, nil, itemID, zerolog.Nop())
	require.NoError(t, v.Load(context.Background(), backend.ListParams{}))

	v.Prepend(item{ID: 2, Name: "b"})
	v.Replace(item{ID: 1, Name: "a2"})

	st := v.State()
	assert.Equal(t, []item{{ID: 2, Name: "b"}, {ID: 1, Name: "a2"}}, st.Items())
	assert.Equal(t, 2, st.Page.Total)
}
