package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/views"
)

// Tab keys
const (
	tabDonations   = "donations"
	tabMyDonations = "my-donations"
	tabExpenses    = "expenses"
	tabActivities  = "activities"
	tabArticles    = "articles"
	tabAspirations = "aspirations"
	tabUsers       = "users"
)

// tab is one entry of a shell's tab bar and what the role may do there
type tab struct {
	Key       string
	Label     string
	CanCreate bool
	CanEdit   bool
	CanDelete bool
}

// shell is a role dashboard: a fixed tab bar mounting one feature view
type shell struct {
	Role  models.Role
	Base  string
	Title string
	Tabs  []tab
}

func (sh *shell) tab(key string) (tab, bool) {
	for _, t := range sh.Tabs {
		if t.Key == key {
			return t, true
		}
	}
	return tab{}, false
}

func managementTabs(withUsers bool) []tab {
	tabs := []tab{
		{Key: tabDonations, Label: "Donasi", CanCreate: true},
		{Key: tabExpenses, Label: "Pengeluaran", CanCreate: true, CanDelete: true},
		{Key: tabActivities, Label: "Kegiatan", CanCreate: true, CanEdit: true, CanDelete: true},
		{Key: tabArticles, Label: "Artikel", CanCreate: true, CanDelete: true},
		{Key: tabAspirations, Label: "Aspirasi", CanDelete: true},
	}
	if withUsers {
		tabs = append(tabs, tab{Key: tabUsers, Label: "Pengguna", CanEdit: true, CanDelete: true})
	}
	return tabs
}

var shells = []*shell{
	{
		Role:  models.RoleAdmin,
		Base:  "/admin",
		Title: "Dashboard Admin",
		Tabs:  managementTabs(true),
	},
	{
		Role:  models.RoleTakmir,
		Base:  "/takmir",
		Title: "Dashboard Takmir",
		Tabs:  managementTabs(false),
	},
	{
		Role:  models.RoleWarga,
		Base:  "/dashboard/warga",
		Title: "Dashboard Warga",
		Tabs: []tab{
			{Key: tabMyDonations, Label: "Donasi Saya", CanCreate: true},
			{Key: tabActivities, Label: "Kegiatan"},
			{Key: tabArticles, Label: "Artikel"},
			{Key: tabAspirations, Label: "Aspirasi", CanCreate: true},
		},
	},
}

// feature is what every view mounted in a shell supports
type feature interface {
	Load(ctx context.Context, params backend.ListParams) error
}

// shellPage is the template data for a dashboard
type shellPage struct {
	Title    string
	User     *models.User
	Shell    *shell
	Tab      tab
	View     any
	Form     views.FormState
	EditID   int64
	DeleteID int64
	Params   backend.ListParams
	Notice   string
	Error    string

	// DismissURL reloads the tab without the banners of the last action
	DismissURL string
}

func (s *Server) mountShell(sh *shell) {
	group := s.router.Group(sh.Base, s.roleGate(sh.Role))
	group.GET("", s.showShell(sh))
	group.POST("/:tab/create", s.createItem(sh))
	group.POST("/:tab/:id/update", s.updateItem(sh))
	group.POST("/:tab/:id/delete", s.deleteItem(sh))
	if _, ok := sh.tab(tabDonations); ok {
		group.GET("/donations/export", s.exportDonations)
	}
}

// dashboardRedirect sends each role to its own shell
func (s *Server) dashboardRedirect(c *gin.Context) {
	user := auth.MustSession(c).User()
	if user == nil {
		c.Redirect(http.StatusFound, s.guard.LoginURL(c.Request.URL.Path))
		return
	}
	c.Redirect(http.StatusFound, user.Role.HomePath())
}

func listParams(c *gin.Context) backend.ListParams {
	page, _ := strconv.Atoi(c.Query("page"))
	return backend.ListParams{
		Page:   page,
		Status: c.Query("status"),
		Search: c.Query("q"),
	}
}

// deps builds the view dependencies for the current request
func (s *Server) deps(c *gin.Context) views.Deps {
	return views.Deps{
		Client:    s.client,
		Source:    auth.MustSession(c),
		Validator: s.validator,
		Logger:    s.logger.With().Str("request_id", requestID(c)).Logger(),
	}
}

// newView mounts the feature view behind a tab
func (s *Server) newView(c *gin.Context, key string) feature {
	deps := s.deps(c)
	switch key {
	case tabDonations:
		return views.NewDonations(deps)
	case tabMyDonations:
		return views.NewMyDonations(deps)
	case tabExpenses:
		return views.NewExpenses(deps)
	case tabActivities:
		return views.NewActivities(deps)
	case tabArticles:
		return views.NewArticles(deps)
	case tabAspirations:
		return views.NewAspirations(deps)
	case tabUsers:
		return views.NewUsers(deps, auth.MustSession(c).User().ID)
	}
	return nil
}

// resolveTab finds the requested tab, defaulting to the first one
func resolveTab(sh *shell, key string) (tab, bool) {
	if key == "" {
		return sh.Tabs[0], true
	}
	return sh.tab(key)
}

// render loads the tab's list and writes the shell page
func (s *Server) render(c *gin.Context, sh *shell, t tab, view feature, page shellPage, status int) {
	// Load failures are shown through the view's own banner
	_ = view.Load(c.Request.Context(), listParams(c))
	s.writeShell(c, sh, t, view, page, status)
}

// writeShell writes the shell page around an already loaded view
func (s *Server) writeShell(c *gin.Context, sh *shell, t tab, view feature, page shellPage, status int) {
	params := listParams(c)

	page.Title = sh.Title
	page.User = auth.MustSession(c).User()
	page.Shell = sh
	page.Tab = t
	page.View = view
	page.Params = params
	page.DismissURL = dismissURL(sh, t, params)
	if page.Form.Values == nil {
		page.Form = views.NewFormState(nil)
	}

	c.HTML(status, "shell.html", page)
}

func dismissURL(sh *shell, t tab, params backend.ListParams) string {
	q := url.Values{"tab": {t.Key}}
	if params.Page > 1 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Search != "" {
		q.Set("q", params.Search)
	}
	return sh.Base + "?" + q.Encode()
}

func (s *Server) showShell(sh *shell) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := resolveTab(sh, c.Query("tab"))
		if !ok {
			c.Redirect(http.StatusFound, sh.Base)
			return
		}
		page := shellPage{}
		if id, ok := views.ParseID(c.Query("edit")); ok && t.CanEdit {
			page.EditID = id
		}
		// Deleting goes through a confirmation panel first
		if id, ok := views.ParseID(c.Query("delete")); ok && t.CanDelete {
			page.DeleteID = id
		}
		s.render(c, sh, t, s.newView(c, t.Key), page, http.StatusOK)
	}
}

func (s *Server) exportDonations(c *gin.Context) {
	view := views.NewDonations(s.deps(c))
	body, contentType, err := view.Export(c.Request.Context(), listParams(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export donations")
		c.String(http.StatusBadGateway, views.MsgLoadFailed)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `attachment; filename="donasi.csv"`)
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
