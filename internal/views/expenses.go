package views

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// Expenses lists mosque expenses with their running totals
type Expenses struct {
	deps Deps
	List *ListView[models.Expense]

	totalsSeq Sequencer
	mu        sync.RWMutex
	totals    *models.ExpenseTotals
}

func NewExpenses(deps Deps) *Expenses {
	return &Expenses{
		deps: deps,
		List: NewListView(deps.Source, deps.Client.ListExpenses, deps.Client.DeleteExpense,
			func(e models.Expense) int64 { return e.ID }, deps.logger("expenses")),
	}
}

// Load fetches the list and totals concurrently
func (e *Expenses) Load(ctx context.Context, params backend.ListParams) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := e.List.Load(ctx, params); err != nil && !errors.Is(err, ErrStale) {
			return err
		}
		return nil
	})
	seq := e.totalsSeq.Next()
	g.Go(func() error {
		totals, err := e.deps.Client.ExpenseTotals(ctx, e.deps.Source.Credentials())
		if err != nil {
			logger := e.deps.logger("expenses")
			logger.Warn().Err(err).Msg("Failed to load expense totals")
			return nil
		}
		e.totalsSeq.Commit(seq, func() {
			e.mu.Lock()
			e.totals = totals
			e.mu.Unlock()
		})
		return nil
	})
	return g.Wait()
}

// Totals returns the last loaded totals, nil if unavailable
func (e *Expenses) Totals() *models.ExpenseTotals {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totals
}

func (e *Expenses) Create(ctx context.Context, values map[string]string) FormState {
	form := NewFormState(values)
	in := backend.ExpenseInput{
		Keterangan: values["keterangan"],
		Kategori:   values["kategori"],
		Tanggal:    values["tanggal"],
	}
	if raw := values["jumlah"]; raw != "" {
		amount, err := models.ParseAmount(raw)
		if err != nil {
			form.Invalid("jumlah", "Harus berupa angka")
		}
		in.Jumlah = amount
	}

	return submit(ctx, e.deps.Validator, form, in, e.deps.logger("expenses"), "Pengeluaran berhasil dicatat", func(ctx context.Context) error {
		created, err := e.deps.Client.CreateExpense(ctx, e.deps.Source.Credentials(), in)
		if err != nil {
			return err
		}
		e.List.Prepend(*created)
		return nil
	})
}

func (e *Expenses) Delete(ctx context.Context, id int64, confirmed bool) error {
	return e.List.Delete(ctx, id, confirmed)
}
