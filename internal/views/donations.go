package views

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// Donations lists donations with the summary cards. In "mine" mode it shows
// only the signed-in user's donations and has no statistics.
type Donations struct {
	deps Deps
	mine bool
	List *ListView[models.Donation]

	statsSeq Sequencer
	mu       sync.RWMutex
	stats    *models.DonationStatistics
	statsErr string
}

// NewDonations creates the management donations view
func NewDonations(deps Deps) *Donations {
	return newDonations(deps, false)
}

// NewMyDonations creates the warga donation history view
func NewMyDonations(deps Deps) *Donations {
	return newDonations(deps, true)
}

func newDonations(deps Deps, mine bool) *Donations {
	fetch := deps.Client.ListDonations
	name := "donations"
	if mine {
		fetch = deps.Client.MyDonations
		name = "my-donations"
	}
	return &Donations{
		deps: deps,
		mine: mine,
		List: NewListView(deps.Source, fetch, nil, func(d models.Donation) int64 { return d.ID }, deps.logger(name)),
	}
}

// Mine reports whether the view shows only the user's own donations
func (d *Donations) Mine() bool {
	return d.mine
}

// Load fetches the list and, for management, the statistics concurrently.
// A statistics failure does not hide the list.
func (d *Donations) Load(ctx context.Context, params backend.ListParams) error {
	var g errgroup.Group

	g.Go(func() error {
		if err := d.List.Load(ctx, params); err != nil && !errors.Is(err, ErrStale) {
			return err
		}
		return nil
	})

	if !d.mine {
		seq := d.statsSeq.Next()
		g.Go(func() error {
			stats, err := d.deps.Client.DonationStatistics(ctx, d.deps.Source.Credentials())
			applied := d.statsSeq.Commit(seq, func() {
				d.mu.Lock()
				defer d.mu.Unlock()
				if err != nil {
					d.statsErr = MsgLoadFailed
					return
				}
				d.stats, d.statsErr = stats, ""
			})
			if applied && err != nil {
				logger := d.deps.logger("donations")
				logger.Error().Err(err).Msg("Failed to load donation statistics")
			}
			return nil
		})
	}

	return g.Wait()
}

// Stats returns the last loaded statistics, nil if unavailable
func (d *Donations) Stats() *models.DonationStatistics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// StatsError returns the statistics banner message
func (d *Donations) StatsError() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.statsErr
}

// Create records a donation. jumlah_donasi is sent as a JSON number.
func (d *Donations) Create(ctx context.Context, values map[string]string) FormState {
	form := NewFormState(values)

	in := backend.DonationInput{
		NamaDonatur:      values["nama_donatur"],
		MetodePembayaran: values["metode_pembayaran"],
		Keterangan:       values["keterangan"],
		TanggalDonasi:    values["tanggal_donasi"],
	}
	if raw := values["jumlah_donasi"]; raw != "" {
		amount, err := models.ParseAmount(raw)
		if err != nil {
			form.Invalid("jumlah_donasi", "Harus berupa angka")
		}
		in.JumlahDonasi = amount
	}

	return submit(ctx, d.deps.Validator, form, in, d.deps.logger("donations"), "Donasi berhasil dicatat", func(ctx context.Context) error {
		created, err := d.deps.Client.CreateDonation(ctx, d.deps.Source.Credentials(), in)
		if err != nil {
			return err
		}
		d.List.Prepend(*created)
		return nil
	})
}

// Export streams the CSV export for the current filter
func (d *Donations) Export(ctx context.Context, params backend.ListParams) (io.ReadCloser, string, error) {
	if d.mine {
		return nil, "", errors.New("export is not available for personal donations")
	}
	return d.deps.Client.ExportDonations(ctx, d.deps.Source.Credentials(), params)
}
