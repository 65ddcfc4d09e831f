package views

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

var (
	// ErrNotConfirmed is returned when a destructive action lacks confirmation
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrStale is returned by Load when a newer load superseded it
	ErrStale = errors.New("response superseded by a newer request")
)

// Generic messages shown in the error banner
const (
	MsgLoadFailed   = "Gagal memuat data. Silakan coba lagi."
	MsgDeleteFailed = "Gagal menghapus data. Silakan coba lagi."
	MsgSaveFailed   = "Gagal menyimpan data. Silakan coba lagi."
)

// CredentialSource yields the credentials for each call. The auth Session
// satisfies it by reading the persisted token every time.
type CredentialSource interface {
	Credentials() backend.Credentials
}

// FetchFunc loads one page of a list
type FetchFunc[T any] func(ctx context.Context, creds backend.Credentials, params backend.ListParams) (models.Page[T], error)

// RemoveFunc deletes one item
type RemoveFunc func(ctx context.Context, creds backend.Credentials, id int64) error

// ListState is a render snapshot of a list view
type ListState[T any] struct {
	Page    models.Page[T]
	Params  backend.ListParams
	Loading bool
	Error   string
}

// Items is a shortcut for the current page's rows
func (s ListState[T]) Items() []T {
	return s.Page.Data
}

// ListView owns the loading/error/data state of one list and the delete
// action on it.
type ListView[T any] struct {
	seq    Sequencer
	mu     sync.RWMutex
	state  ListState[T]
	fetch  FetchFunc[T]
	remove RemoveFunc
	idOf   func(T) int64
	src    CredentialSource
	logger zerolog.Logger
}

// NewListView creates a list view. remove may be nil for read-only lists.
func NewListView[T any](src CredentialSource, fetch FetchFunc[T], remove RemoveFunc, idOf func(T) int64, logger zerolog.Logger) *ListView[T] {
	return &ListView[T]{
		fetch:  fetch,
		remove: remove,
		idOf:   idOf,
		src:    src,
		logger: logger,
	}
}

// Load fetches a page. If another Load starts before this one returns, this
// one's result is discarded and ErrStale is returned.
func (v *ListView[T]) Load(ctx context.Context, params backend.ListParams) error {
	seq := v.seq.Next()

	v.mu.Lock()
	v.state.Loading = true
	v.state.Params = params
	v.mu.Unlock()

	page, err := v.fetch(ctx, v.src.Credentials(), params)

	applied := v.seq.Commit(seq, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.state.Loading = false
		if err != nil {
			v.state.Error = MsgLoadFailed
			return
		}
		v.state.Page = page
		v.state.Error = ""
	})
	if !applied {
		return ErrStale
	}
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to load list")
	}
	return err
}

// Delete removes one item after the caller confirmed it. The item leaves the
// list only once the backend accepted the delete; on failure the list is
// untouched and the error banner is set.
func (v *ListView[T]) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if v.remove == nil {
		return errors.New("list is read-only")
	}

	if err := v.remove(ctx, v.src.Credentials(), id); err != nil {
		v.logger.Error().Err(err).Int64("id", id).Msg("Failed to delete item")
		v.SetError(bannerMessage(err, MsgDeleteFailed))
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.state.Page.Data[:0:0]
	for _, item := range v.state.Page.Data {
		if v.idOf(item) != id {
			kept = append(kept, item)
		}
	}
	if removed := len(v.state.Page.Data) - len(kept); removed > 0 && v.state.Page.Total >= removed {
		v.state.Page.Total -= removed
	}
	v.state.Page.Data = kept
	v.state.Error = ""
	return nil
}

// Prepend inserts a freshly created item at the top of the list
func (v *ListView[T]) Prepend(item T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Page.Data = append([]T{item}, v.state.Page.Data...)
	v.state.Page.Total++
}

// Replace swaps the item with the same id
func (v *ListView[T]) Replace(item T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.idOf(item)
	for i := range v.state.Page.Data {
		if v.idOf(v.state.Page.Data[i]) == id {
			v.state.Page.Data[i] = item
			return
		}
	}
}

// SetError shows msg in the banner
func (v *ListView[T]) SetError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Error = msg
}

// State returns a copy safe for rendering
func (v *ListView[T]) State() ListState[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	st := v.state
	st.Page.Data = append([]T(nil), v.state.Page.Data...)
	return st
}

// bannerMessage prefers the backend's own message and falls back to a
// generic one for transport failures.
func bannerMessage(err error, fallback string) string {
	if apiErr, ok := backend.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
