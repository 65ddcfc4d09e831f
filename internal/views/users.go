package views

import (
	"context"
	"errors"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// ErrSelfDelete is returned when an admin tries to delete their own account
var ErrSelfDelete = errors.New("cannot delete the signed-in account")

// Users lets admins manage accounts and their roles
type Users struct {
	deps Deps
	self int64
	List *ListView[models.User]
}

// NewUsers creates the users view for the signed-in admin selfID
func NewUsers(deps Deps, selfID int64) *Users {
	return &Users{
		deps: deps,
		self: selfID,
		List: NewListView(deps.Source, deps.Client.ListUsers, deps.Client.DeleteUser,
			func(u models.User) int64 { return u.ID }, deps.logger("users")),
	}
}

func (u *Users) Load(ctx context.Context, params backend.ListParams) error {
	return u.List.Load(ctx, params)
}

// UpdateRole changes one account's role
func (u *Users) UpdateRole(ctx context.Context, id int64, values map[string]string) FormState {
	form := NewFormState(values)
	in := backend.UserUpdate{
		Name:  values["name"],
		Email: values["email"],
		Role:  models.Role(values["role"]),
	}
	if id == u.self && in.Role != models.RoleAdmin {
		form.Invalid("role", "Tidak dapat mengubah peran akun sendiri")
	}

	return submit(ctx, u.deps.Validator, form, in, u.deps.logger("users"), "Pengguna berhasil diperbarui", func(ctx context.Context) error {
		updated, err := u.deps.Client.UpdateUser(ctx, u.deps.Source.Credentials(), id, in)
		if err != nil {
			return err
		}
		if updated.ID == 0 {
			updated.ID = id
		}
		u.List.Replace(*updated)
		return nil
	})
}

func (u *Users) Delete(ctx context.Context, id int64, confirmed bool) error {
	if id == u.self {
		u.List.SetError("Tidak dapat menghapus akun sendiri")
		return ErrSelfDelete
	}
	return u.List.Delete(ctx, id, confirmed)
}
