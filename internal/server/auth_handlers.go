package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/views"
)

// LoginForm represents a submitted login form
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm represents a submitted registration form
type RegisterForm struct {
	Name                 string `json:"name" validate:"required,max=100"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

const (
	msgBackendDown  = "Tidak dapat terhubung ke server. Silakan coba lagi."
	msgBadLogin     = "Email atau kata sandi salah."
	msgUnknownRole  = "Akun ini belum memiliki peran. Hubungi pengurus masjid."
	msgRegisterDone = "Pendaftaran berhasil. Silakan masuk."
)

type authPage struct {
	Title    string
	User     *models.User
	Form     views.FormState
	Redirect string
	Notice   string
}

// safeRedirect only allows local absolute paths
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	return target
}

// relayCookies hands backend session cookies to the browser so they come
// back on later requests and can be forwarded.
func (s *Server) relayCookies(c *gin.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.Name == auth.SessionCookieName {
			continue
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.config.Session.CookieSecure,
			SameSite: http.SameSiteLaxMode,
			Expires:  ck.Expires,
		})
	}
}

func formValues(c *gin.Context, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = strings.TrimSpace(c.PostForm(f))
	}
	return values
}

func (s *Server) loginPage(c *gin.Context) {
	session := auth.MustSession(c)
	redirect := safeRedirect(c.Query("redirect"))

	if user := session.User(); user != nil {
		target := redirect
		if target == "" {
			target = user.Role.HomePath()
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	page := authPage{Title: "Masuk", Redirect: redirect, Form: views.NewFormState(nil)}
	if c.Query("registered") != "" {
		page.Notice = msgRegisterDone
	}
	c.HTML(http.StatusOK, "login.html", page)
}

func (s *Server) login(c *gin.Context) {
	session := auth.MustSession(c)
	ctx := c.Request.Context()

	in := LoginForm{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	redirect := safeRedirect(c.PostForm("redirect"))
	page := authPage{Title: "Masuk", Redirect: redirect, Form: views.NewFormState(map[string]string{"email": in.Email})}

	if !s.validator.Check(in, &page.Form) {
		c.HTML(http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	resp, err := s.client.Login(ctx, backend.Credentials{Cookies: auth.ForwardedCookies(c.Request)}, in.Email, in.Password)
	if err != nil {
		status := s.applyAuthError(c, err, &page.Form, msgBadLogin)
		c.HTML(status, "login.html", page)
		return
	}
	if !resp.User.Role.Valid() {
		page.Form.Error = msgUnknownRole
		c.HTML(http.StatusForbidden, "login.html", page)
		return
	}

	s.relayCookies(c, resp.Cookies)
	if err := session.Login(ctx, resp.User, resp.BearerToken()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist session")
		page.Form.Error = views.MsgSaveFailed
		c.HTML(http.StatusInternalServerError, "login.html", page)
		return
	}

	s.logger.Info().Int64("user_id", resp.User.ID).Str("role", resp.User.Role.String()).Msg("User logged in")

	target := redirect
	if target == "" {
		target = resp.User.Role.HomePath()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) registerPage(c *gin.Context) {
	if user := auth.MustSession(c).User(); user != nil {
		c.Redirect(http.StatusFound, user.Role.HomePath())
		return
	}
	c.HTML(http.StatusOK, "register.html", authPage{Title: "Daftar", Form: views.NewFormState(nil)})
}

func (s *Server) register(c *gin.Context) {
	session := auth.MustSession(c)
	ctx := c.Request.Context()

	in := RegisterForm{
		Name:                 strings.TrimSpace(c.PostForm("name")),
		Email:                strings.TrimSpace(c.PostForm("email")),
		Password:             c.PostForm("password"),
		PasswordConfirmation: c.PostForm("password_confirmation"),
	}
	page := authPage{Title: "Daftar", Form: views.NewFormState(map[string]string{"name": in.Name, "email": in.Email})}

	if !s.validator.Check(in, &page.Form) {
		c.HTML(http.StatusUnprocessableEntity, "register.html", page)
		return
	}

	resp, err := s.client.Register(ctx, backend.Credentials{Cookies: auth.ForwardedCookies(c.Request)}, backend.RegisterRequest{
		Name:                 in.Name,
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
	})
	if err != nil {
		status := s.applyAuthError(c, err, &page.Form, views.MsgSaveFailed)
		c.HTML(status, "register.html", page)
		return
	}
	s.relayCookies(c, resp.Cookies)

	// Some deployments sign the new user in right away
	if token := resp.BearerToken(); token != "" && resp.User != nil && resp.User.Role.Valid() {
		if err := session.Login(ctx, resp.User, token); err == nil {
			c.Redirect(http.StatusSeeOther, resp.User.Role.HomePath())
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

// applyAuthError maps a failed login/register onto the form and returns the
// status to render with.
func (s *Server) applyAuthError(c *gin.Context, err error, form *views.FormState, fallback string) int {
	apiErr, ok := backend.AsAPIError(err)
	if !ok {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Backend unreachable")
		form.Error = msgBackendDown
		return http.StatusBadGateway
	}

	s.logger.Info().Int("status", apiErr.Status).Str("path", c.Request.URL.Path).Msg("Backend rejected credentials")
	for _, field := range apiErr.FieldNames() {
		if msgs := apiErr.Errors[field]; len(msgs) > 0 {
			form.Invalid(field, msgs[0])
		}
	}
	form.Error = apiErr.Message
	if form.Error == "" {
		form.Error = fallback
	}
	if apiErr.Status >= 500 {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) logout(c *gin.Context) {
	session := auth.MustSession(c)
	if err := session.Logout(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session token")
	}
	c.Redirect(http.StatusSeeOther, s.guard.Rules().LoginPath)
}

func (s *Server) unauthorized(c *gin.Context) {
	page := authPage{Title: "Akses ditolak", User: auth.MustSession(c).User()}
	c.HTML(http.StatusForbidden, "unauthorized.html", page)
}
