package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/views"
)

// NewArticlesCmd creates the articles command group
func NewArticlesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"artikel"},
		Short:   "List and remove articles",
	}
	cmd.AddCommand(newArticlesListCmd(app), newArticlesDeleteCmd(app))
	return cmd
}

func newArticlesListCmd(app *App) *cobra.Command {
	var params backend.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArticlesList(cmd.Context(), app, params)
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search in titles")

	return cmd
}

func runArticlesList(ctx context.Context, app *App, params backend.ListParams) error {
	// Articles are public; a session is used when there is one
	app.session.Init(ctx)

	view := views.NewArticles(app.viewDeps())
	if err := view.Load(ctx, params); err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	items := view.List.State().Items()
	if len(items) == 0 {
		fmt.Fprintln(app.Out, "No articles found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJUDUL\tPENULIS\tDIBUAT")
	fmt.Fprintln(w, "──\t─────\t───────\t──────")
	for _, a := range items {
		created := "-"
		if !a.CreatedAt.IsZero() {
			created = a.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Judul, a.Penulis, created)
	}
	w.Flush()

	return nil
}

func newArticlesDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := views.ParseID(args[0])
			if !ok {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			return runArticlesDelete(cmd.Context(), app, id, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runArticlesDelete(ctx context.Context, app *App, id int64, yes bool) error {
	if _, err := app.requireRole(ctx, models.RoleAdmin, models.RoleTakmir); err != nil {
		return err
	}

	confirmed := yes
	if !confirmed {
		ok, err := app.Confirm(fmt.Sprintf("Delete article #%d", id))
		if err != nil {
			return err
		}
		confirmed = ok
	}

	view := views.NewArticles(app.viewDeps())
	err := view.Delete(ctx, id, confirmed)
	switch {
	case errors.Is(err, views.ErrNotConfirmed):
		fmt.Fprintln(app.Out, "Cancelled.")
		return nil
	case err != nil:
		return errors.New(view.List.State().Error)
	}

	fmt.Fprintf(app.Out, "✓ Article #%d deleted\n", id)
	return nil
}
