package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masjidku/masjidku-web/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, zerolog.Nop())
}

func TestLoginPerformsCSRFHandshake(t *testing.T) {
	var order []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case csrfPath:
			http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "tok%2Bx%3D", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
		case "/api/login":
			assert.Equal(t, "tok+x=", r.Header.Get(csrfHeaderName))
			ck, err := r.Cookie("laravel_session")
			require.NoError(t, err)
			assert.Equal(t, "s1", ck.Value)
			_, _ = w.Write([]byte(`{"access_token":"abc","user":{"id":4,"name":"Ahmad","email":"a@b.c","role":["editor","takmir"]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := client.Login(context.Background(), Credentials{}, "a@b.c", "secret")
	require.NoError(t, err)

	assert.Equal(t, []string{"GET " + csrfPath, "POST /api/login"}, order)
	assert.Equal(t, "abc", resp.BearerToken())
	assert.Equal(t, models.RoleTakmir, resp.User.Role)
	assert.Len(t, resp.Cookies, 2)
}

func TestLoginRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == csrfPath {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Email atau password salah"}`))
	})

	_, err := client.Login(context.Background(), Credentials{}, "a@b.c", "nope")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Email atau password salah", apiErr.Message)
}

func TestGetRequestsDoNotEchoCSRF(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(csrfHeaderName))
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})

	creds := Credentials{Token: "t1", Cookies: []*http.Cookie{{Name: csrfCookieName, Value: "x"}}}
	_, err := client.ListArticles(context.Background(), creds, ListParams{})
	require.NoError(t, err)
}

func TestMeResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.Role
	}{
		{"wrapped", `{"user":{"id":1,"name":"A","role":"admin"}}`, models.RoleAdmin},
		{"data", `{"data":{"id":1,"name":"A","role":"warga"}}`, models.RoleWarga},
		{"bare", `{"id":1,"name":"A","role":"takmir"}`, models.RoleTakmir},
		{"role array", `{"user":{"id":1,"name":"A","role":["takmir","admin"]}}`, models.RoleTakmir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			user, err := client.Me(context.Background(), Bearer("t"))
			require.NoError(t, err)
			assert.Equal(t, int64(1), user.ID)
			assert.Equal(t, tt.want, user.Role)
		})
	}
}

func TestMeRejectsUnknownRole(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":1,"role":"superuser"}}`))
	})
	_, err := client.Me(context.Background(), Bearer("t"))
	assert.Error(t, err)
}

func TestMeRejectsMissingRole(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":1,"role":null}}`))
	})
	_, err := client.Me(context.Background(), Bearer("t"))
	assert.Error(t, err)
}

func TestListUsersKeepsRolelessAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Admin","role":"admin"},{"id":2,"name":"Baru","role":null},{"id":3,"name":"Tamu","role":"tamu"}]}`))
	})

	page, err := client.ListUsers(context.Background(), Bearer("t"), ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, models.RoleAdmin, page.Data[0].Role)
	assert.False(t, page.Data[1].Role.Valid())
	assert.Equal(t, "-", page.Data[1].Role.Label())
	assert.False(t, page.Data[2].Role.Valid())
}

func TestDecodePageShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		wantPage  int
		wantLast  int
		wantTotal int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, 1, 1, 2},
		{"data array", `{"data":[{"id":1}]}`, 1, 1, 1, 1},
		{"paginated", `{"data":[{"id":1},{"id":2}],"current_page":2,"last_page":5,"per_page":2,"total":9}`, 2, 2, 5, 9},
		{"wrapped paginated", `{"success":true,"data":{"data":[{"id":1}],"current_page":3,"last_page":3,"total":5}}`, 1, 3, 3, 5},
		{"null data", `{"data":null}`, 0, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage[models.Article]([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, page.Data, tt.wantLen)
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantLast, page.LastPage)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestListParamsQuery(t *testing.T) {
	assert.Equal(t, "", ListParams{Page: 1}.query())
	assert.Equal(t, "?page=2&search=zakat&status=pending", ListParams{Page: 2, Status: "pending", Search: "zakat"}.query())
}

func TestValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"judul":["Judul wajib diisi"],"konten":["Konten wajib diisi"]}}`))
	})

	_, err := client.CreateArticle(context.Background(), Bearer("t"), ArticleInput{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsValidation())
	assert.Equal(t, []string{"judul", "konten"}, apiErr.FieldNames())
	assert.Equal(t, "Judul wajib diisi", apiErr.Errors["judul"][0])
}

func TestNonJSONErrorBodyIsNotAMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	})

	err := client.DeleteArticle(context.Background(), Bearer("t"), 3)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, apiErr.Body, "502 Bad Gateway")
	assert.Contains(t, apiErr.Error(), "502 Bad Gateway")
}

func TestCreateUnwrapsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"judul":"Kajian","isi":"Mohon diadakan kajian"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":12,"judul":"Kajian","isi":"Mohon diadakan kajian","status":"pending"}}`))
	})

	asp, err := client.CreateAspiration(context.Background(), Bearer("t"), AspirationInput{Judul: "Kajian", Isi: "Mohon diadakan kajian"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), asp.ID)
}

func TestExportDonations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/donations/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,nama\n1,Fulan\n"))
	})

	body, contentType, err := client.ExportDonations(context.Background(), Bearer("t"), ListParams{})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "id,nama\n1,Fulan\n", string(data))
}
