package views

import (
	"context"
	"encoding/json"
	"io"
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

func newDeps(t *testing.T, handler http.Handler) Deps {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return Deps{
		Client:    backend.New(srv.URL, zerolog.Nop()),
		Source:    staticSource{creds: backend.Bearer("tok")},
		Validator: NewValidator(),
		Logger:    zerolog.Nop(),
	}
}

func validDonation() map[string]string {
	return map[string]string{
		"nama_donatur":      "Hamba Allah",
		"jumlah_donasi":     "150000",
		"metode_pembayaran": "transfer",
		"tanggal_donasi":    "2026-10-01",
	}
}

func TestDonations_CreateSendsNumericAmount(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/donations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		bodies <- body

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":9,"nama_donatur":"Hamba Allah","jumlah_donasi":"150000.00","status":"pending"}}`))
	}))

	d := NewDonations(deps)
	form := d.Create(context.Background(), validDonation())

	require.False(t, form.HasErrors(), "%+v", form)
	assert.NotEmpty(t, form.Success)
	body := <-bodies
	assert.Equal(t, float64(150000), body["jumlah_donasi"], "amount must be a JSON number")

	items := d.List.State().Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.Amount(150000), items[0].JumlahDonasi)
}

func TestDonations_CreateShowsBackendMessageExactly(t *testing.T) {
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server sedang dalam pemeliharaan"}`))
	}))

	form := NewDonations(deps).Create(context.Background(), validDonation())
	assert.Equal(t, "Server sedang dalam pemeliharaan", form.Error)
	assert.Equal(t, "Hamba Allah", form.Value("nama_donatur"))
}

func TestDonations_CreateMapsValidationErrors(t *testing.T) {
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"tanggal_donasi":["Tanggal tidak boleh di masa depan."]}}`))
	}))

	form := NewDonations(deps).Create(context.Background(), validDonation())
	assert.Equal(t, "Tanggal tidak boleh di masa depan.", form.FieldError("tanggal_donasi"))
	assert.Equal(t, "The given data was invalid.", form.Error)
}

func TestDonations_CreateValidatesLocally(t *testing.T) {
	var calls atomic.Int32
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	values := validDonation()
	values["jumlah_donasi"] = "seratus"
	values["metode_pembayaran"] = "cek"
	values["nama_donatur"] = ""

	form := NewDonations(deps).Create(context.Background(), values)
	assert.Equal(t, "Harus berupa angka", form.FieldError("jumlah_donasi"))
	assert.NotEmpty(t, form.FieldError("metode_pembayaran"))
	assert.Equal(t, "Wajib diisi", form.FieldError("nama_donatur"))
	assert.Zero(t, calls.Load(), "invalid forms never reach the backend")
}

func TestDonations_CreateRejectsFractionalRupiah(t *testing.T) {
	var calls atomic.Int32
	deps := newDeps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	values := validDonation()
	values["jumlah_donasi"] = "150000.75"

	form := NewDonations(deps).Create(context.Background(), values)
	assert.Equal(t, "Harus berupa angka", form.FieldError("jumlah_donasi"))
	assert.Zero(t, calls.Load())
}

func TestDonations_LoadListAndStatistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/donations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"jumlah_donasi":50000},{"id":2,"jumlah_donasi":"75000.00"}],"current_page":1,"last_page":3,"per_page":2,"total":6}`))
	})
	mux.HandleFunc("/api/donations/statistics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"total_donasi":"125000.00","jumlah_donatur":2,"bulan_ini":50000,"pending":1}}`))
	})
	d := NewDonations(newDeps(t, mux))

	require.NoError(t, d.Load(context.Background(), backend.ListParams{Status: "pending"}))

	st := d.List.State()
	assert.Len(t, st.Items(), 2)
	assert.True(t, st.Page.HasNext())
	require.NotNil(t, d.Stats())
	assert.Equal(t, models.Amount(125000), d.Stats().TotalDonasi)
	assert.Empty(t, d.StatsError())
}

func TestDonations_StatisticsFailureKeepsList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/donations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1}]}`))
	})
	mux.HandleFunc("/api/donations/statistics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	d := NewDonations(newDeps(t, mux))

	require.NoError(t, d.Load(context.Background(), backend.ListParams{}))
	assert.Len(t, d.List.State().Items(), 1)
	assert.Nil(t, d.Stats())
	assert.Equal(t, MsgLoadFailed, d.StatsError())
}

func TestDonations_LateStatisticsAreDiscarded(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/donations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("/api/donations/statistics", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
			<-release
			_, _ = w.Write([]byte(`{"data":{"total_donasi":1000}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"total_donasi":2000}}`))
	})
	d := NewDonations(newDeps(t, mux))

	first := make(chan error, 1)
	go func() { first <- d.Load(context.Background(), backend.ListParams{}) }()
	<-arrived

	require.NoError(t, d.Load(context.Background(), backend.ListParams{}))
	close(release)
	require.NoError(t, <-first)

	require.NotNil(t, d.Stats())
	assert.Equal(t, models.Amount(2000), d.Stats().TotalDonasi)
}

func TestMyDonations(t *testing.T) {
	var statsCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/my-donations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":4,"jumlah_donasi":10000}]`))
	})
	mux.HandleFunc("/api/donations/statistics", func(w http.ResponseWriter, r *http.Request) {
		statsCalls.Add(1)
	})
	d := NewMyDonations(newDeps(t, mux))

	require.NoError(t, d.Load(context.Background(), backend.ListParams{}))
	assert.True(t, d.Mine())
	assert.Len(t, d.List.State().Items(), 1)
	assert.Zero(t, statsCalls.Load())

	_, _, err := d.Export(context.Background(), backend.ListParams{})
	assert.Error(t, err)
}
