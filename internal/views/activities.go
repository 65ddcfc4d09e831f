package views

import (
	"context"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// Activities manages the kegiatan schedule
type Activities struct {
	deps Deps
	List *ListView[models.Activity]
}

func NewActivities(deps Deps) *Activities {
	return &Activities{
		deps: deps,
		List: NewListView(deps.Source, deps.Client.ListActivities, deps.Client.DeleteActivity,
			func(a models.Activity) int64 { return a.ID }, deps.logger("activities")),
	}
}

func (a *Activities) Load(ctx context.Context, params backend.ListParams) error {
	return a.List.Load(ctx, params)
}

func activityInput(values map[string]string) backend.ActivityInput {
	return backend.ActivityInput{
		NamaKegiatan: values["nama_kegiatan"],
		Deskripsi:    values["deskripsi"],
		Tanggal:      values["tanggal"],
		Waktu:        values["waktu"],
		Lokasi:       values["lokasi"],
	}
}

func (a *Activities) Create(ctx context.Context, values map[string]string) FormState {
	in := activityInput(values)
	return submit(ctx, a.deps.Validator, NewFormState(values), in, a.deps.logger("activities"), "Kegiatan berhasil ditambahkan", func(ctx context.Context) error {
		created, err := a.deps.Client.CreateActivity(ctx, a.deps.Source.Credentials(), in)
		if err != nil {
			return err
		}
		a.List.Prepend(*created)
		return nil
	})
}

func (a *Activities) Update(ctx context.Context, id int64, values map[string]string) FormState {
	in := activityInput(values)
	return submit(ctx, a.deps.Validator, NewFormState(values), in, a.deps.logger("activities"), "Kegiatan berhasil diperbarui", func(ctx context.Context) error {
		updated, err := a.deps.Client.UpdateActivity(ctx, a.deps.Source.Credentials(), id, in)
		if err != nil {
			return err
		}
		if updated.ID == 0 {
			updated.ID = id
		}
		a.List.Replace(*updated)
		return nil
	})
}

func (a *Activities) Delete(ctx context.Context, id int64, confirmed bool) error {
	return a.List.Delete(ctx, id, confirmed)
}
