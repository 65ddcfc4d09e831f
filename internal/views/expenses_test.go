package views

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

func TestExpenses_LoadListAndTotals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"jumlah":"50000.00"}]}`))
	})
	mux.HandleFunc("/api/expenses/total", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"total":"50000.00","bulan_ini":50000}}`))
	})
	e := NewExpenses(newDeps(t, mux))

	require.NoError(t, e.Load(context.Background(), backend.ListParams{}))
	assert.Len(t, e.List.State().Items(), 1)
	require.NotNil(t, e.Totals())
	assert.Equal(t, models.Amount(50000), e.Totals().Total)
}

func TestExpenses_LateTotalsAreDiscarded(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("/api/expenses/total", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
			<-release
			_, _ = w.Write([]byte(`{"data":{"total":100}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"total":200}}`))
	})
	e := NewExpenses(newDeps(t, mux))

	first := make(chan error, 1)
	go func() { first <- e.Load(context.Background(), backend.ListParams{}) }()
	<-arrived

	require.NoError(t, e.Load(context.Background(), backend.ListParams{}))
	close(release)
	require.NoError(t, <-first)

	require.NotNil(t, e.Totals())
	assert.Equal(t, models.Amount(200), e.Totals().Total)
}

func TestExpenses_CreateRejectsFractionalRupiah(t *testing.T) {
	var calls atomic.Int32
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	form := NewExpenses(deps).Create(context.Background(), map[string]string{
		"keterangan": "Listrik",
		"kategori":   "operasional",
		"jumlah":     "1.5",
		"tanggal":    "2026-10-01",
	})
	assert.Equal(t, "Harus berupa angka", form.FieldError("jumlah"))
	assert.Zero(t, calls.Load())
}
