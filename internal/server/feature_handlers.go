package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/views"
)

const (
	msgDeleted          = "Data berhasil dihapus."
	msgConfirmRequired  = "Penghapusan harus dikonfirmasi terlebih dahulu."
	msgActionNotAllowed = "Aksi ini tidak tersedia."
)

// Submitted fields per tab
var formFields = map[string][]string{
	tabDonations:   {"nama_donatur", "jumlah_donasi", "metode_pembayaran", "keterangan", "tanggal_donasi"},
	tabMyDonations: {"nama_donatur", "jumlah_donasi", "metode_pembayaran", "keterangan", "tanggal_donasi"},
	tabExpenses:    {"keterangan", "kategori", "jumlah", "tanggal"},
	tabActivities:  {"nama_kegiatan", "deskripsi", "tanggal", "waktu", "lokasi"},
	tabArticles:    {"judul", "konten", "penulis", "gambar"},
	tabAspirations: {"judul", "isi"},
	tabUsers:       {"name", "email", "role"},
}

type deleter interface {
	Delete(ctx context.Context, id int64, confirmed bool) error
}

// actionTab resolves the tab of an action route and checks the capability
func (s *Server) actionTab(c *gin.Context, sh *shell, allowed func(tab) bool) (tab, bool) {
	t, ok := sh.tab(c.Param("tab"))
	if !ok || !allowed(t) {
		s.logger.Warn().Str("path", c.Request.URL.Path).Msg("Action not available for this dashboard")
		c.String(http.StatusNotFound, msgActionNotAllowed)
		return tab{}, false
	}
	return t, true
}

func formStatus(form views.FormState) int {
	if form.HasErrors() {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// pageAfterSubmit keeps the submitted values on failure and resets the form
// on success
func pageAfterSubmit(form views.FormState) shellPage {
	if form.HasErrors() {
		return shellPage{Form: form}
	}
	return shellPage{Notice: form.Success}
}

func (s *Server) createItem(sh *shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := s.actionTab(c, sh, func(t tab) bool { return t.CanCreate })
		if !ok {
			return
		}

		ctx := c.Request.Context()
		view := s.newView(c, t.Key)
		_ = view.Load(ctx, listParams(c))

		values := formValues(c, formFields[t.Key]...)
		var form views.FormState
		switch v := view.(type) {
		case *views.Donations:
			form = v.Create(ctx, values)
		case *views.Expenses:
			form = v.Create(ctx, values)
		case *views.Activities:
			form = v.Create(ctx, values)
		case *views.Articles:
			form = v.Create(ctx, auth.MustSession(c).User().Name, values)
		case *views.Aspirations:
			form = v.Create(ctx, values)
		default:
			c.String(http.StatusNotFound, msgActionNotAllowed)
			return
		}

		s.writeShell(c, sh, t, view, pageAfterSubmit(form), formStatus(form))
	}
}

func (s *Server) updateItem(sh *shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := s.actionTab(c, sh, func(t tab) bool { return t.CanEdit })
		if !ok {
			return
		}
		id, ok := views.ParseID(c.Param("id"))
		if !ok {
			c.String(http.StatusBadRequest, "invalid id")
			return
		}

		ctx := c.Request.Context()
		view := s.newView(c, t.Key)
		_ = view.Load(ctx, listParams(c))

		values := formValues(c, formFields[t.Key]...)
		var form views.FormState
		switch v := view.(type) {
		case *views.Activities:
			form = v.Update(ctx, id, values)
		case *views.Users:
			form = v.UpdateRole(ctx, id, values)
		default:
			c.String(http.StatusNotFound, msgActionNotAllowed)
			return
		}

		page := pageAfterSubmit(form)
		if form.HasErrors() {
			page.EditID = id
		}
		s.writeShell(c, sh, t, view, page, formStatus(form))
	}
}

// deleteItem removes one row. The list is loaded first so the rendered page
// shows exactly the outcome of the delete call.
func (s *Server) deleteItem(sh *shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := s.actionTab(c, sh, func(t tab) bool { return t.CanDelete })
		if !ok {
			return
		}
		id, ok := views.ParseID(c.Param("id"))
		if !ok {
			c.String(http.StatusBadRequest, "invalid id")
			return
		}

		ctx := c.Request.Context()
		view := s.newView(c, t.Key)
		d, ok := view.(deleter)
		if !ok {
			c.String(http.StatusNotFound, msgActionNotAllowed)
			return
		}
		_ = view.Load(ctx, listParams(c))

		page := shellPage{}
		status := http.StatusOK
		err := d.Delete(ctx, id, c.PostForm("confirm") == "yes")
		switch {
		case err == nil:
			page.Notice = msgDeleted
		case errors.Is(err, views.ErrNotConfirmed):
			page.Error = msgConfirmRequired
			status = http.StatusBadRequest
		}
		// Other failures are already on the view's banner

		s.writeShell(c, sh, t, view, page, status)
	}
}
