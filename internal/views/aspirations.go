package views

import (
	"context"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// Aspirations lists community submissions. Warga submit them; admin and
// takmir review and remove them.
type Aspirations struct {
	deps Deps
	List *ListView[models.Aspiration]
}

func NewAspirations(deps Deps) *Aspirations {
	return &Aspirations{
		deps: deps,
		List: NewListView(deps.Source, deps.Client.ListAspirations, deps.Client.DeleteAspiration,
			func(a models.Aspiration) int64 { return a.ID }, deps.logger("aspirations")),
	}
}

func (a *Aspirations) Load(ctx context.Context, params backend.ListParams) error {
	return a.List.Load(ctx, params)
}

func (a *Aspirations) Create(ctx context.Context, values map[string]string) FormState {
	in := backend.AspirationInput{
		Judul: values["judul"],
		Isi:   values["isi"],
	}
	return submit(ctx, a.deps.Validator, NewFormState(values), in, a.deps.logger("aspirations"), "Aspirasi berhasil dikirim", func(ctx context.Context) error {
		created, err := a.deps.Client.CreateAspiration(ctx, a.deps.Source.Credentials(), in)
		if err != nil {
			return err
		}
		a.List.Prepend(*created)
		return nil
	})
}

func (a *Aspirations) Delete(ctx context.Context, id int64, confirmed bool) error {
	return a.List.Delete(ctx, id, confirmed)
}
