package server

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/masjidku/masjidku-web/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var assetFS embed.FS

var templateFuncs = template.FuncMap{
	"roleLabel": func(r models.Role) string { return r.Label() },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02 Jan 2006")
	},
	"excerpt": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
	"roles": func() []models.Role { return models.Roles },
	"add":   func(a, b int) int { return a + b },
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, errors.New("dict keys must be strings")
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(assetFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
