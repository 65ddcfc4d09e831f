package views

import (
	"context"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
)

// Articles manages published articles
type Articles struct {
	deps Deps
	List *ListView[models.Article]
}

func NewArticles(deps Deps) *Articles {
	return &Articles{
		deps: deps,
		List: NewListView(deps.Source, deps.Client.ListArticles, deps.Client.DeleteArticle,
			func(a models.Article) int64 { return a.ID }, deps.logger("articles")),
	}
}

func (a *Articles) Load(ctx context.Context, params backend.ListParams) error {
	return a.List.Load(ctx, params)
}

// Create publishes an article. An empty author falls back to the signed-in
// user's name.
func (a *Articles) Create(ctx context.Context, author string, values map[string]string) FormState {
	in := backend.ArticleInput{
		Judul:   values["judul"],
		Konten:  values["konten"],
		Penulis: values["penulis"],
		Gambar:  values["gambar"],
	}
	if in.Penulis == "" {
		in.Penulis = author
	}

	return submit(ctx, a.deps.Validator, NewFormState(values), in, a.deps.logger("articles"), "Artikel berhasil diterbitkan", func(ctx context.Context) error {
		created, err := a.deps.Client.CreateArticle(ctx, a.deps.Source.Credentials(), in)
		if err != nil {
			return err
		}
		a.List.Prepend(*created)
		return nil
	})
}

func (a *Articles) Delete(ctx context.Context, id int64, confirmed bool) error {
	return a.List.Delete(ctx, id, confirmed)
}
