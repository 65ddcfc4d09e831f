package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/views"
)

// NewDonationsCmd creates the donations command group
func NewDonationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "donations",
		Aliases: []string{"donasi"},
		Short:   "List and record donations",
	}
	cmd.AddCommand(newDonationsListCmd(app), newDonationsCreateCmd(app))
	return cmd
}

func newDonationsListCmd(app *App) *cobra.Command {
	var params backend.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List donations (warga see their own)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDonationsList(cmd.Context(), app, params)
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number")
	cmd.Flags().StringVar(&params.Status, "status", "", "Filter by status (pending, verified, rejected)")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search by donor name")

	return cmd
}

// donationsView picks the resident or the management list for user
func donationsView(app *App, user *models.User) *views.Donations {
	if user.Role.Satisfies(models.RoleWarga) {
		return views.NewMyDonations(app.viewDeps())
	}
	return views.NewDonations(app.viewDeps())
}

func runDonationsList(ctx context.Context, app *App, params backend.ListParams) error {
	user, err := app.currentUser(ctx)
	if err != nil {
		return err
	}

	view := donationsView(app, user)
	if err := view.Load(ctx, params); err != nil {
		return fmt.Errorf("failed to list donations: %w", err)
	}

	if stats := view.Stats(); stats != nil {
		fmt.Fprintf(app.Out, "Total: %s  Bulan ini: %s  Donatur: %d  Pending: %d\n\n",
			stats.TotalDonasi.Rupiah(), stats.BulanIni.Rupiah(), stats.JumlahDonatur, stats.Pending)
	}

	state := view.List.State()
	if len(state.Items()) == 0 {
		fmt.Fprintln(app.Out, "No donations found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONATUR\tJUMLAH\tMETODE\tSTATUS\tTANGGAL")
	fmt.Fprintln(w, "──\t───────\t──────\t──────\t──────\t───────")
	for _, d := range state.Items() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.ID,
			d.NamaDonatur,
			d.JumlahDonasi.Rupiah(),
			d.MetodePembayaran,
			d.Status,
			d.TanggalDonasi,
		)
	}
	w.Flush()

	page := state.Page
	fmt.Fprintf(app.Out, "\nPage %d of %d (%d total)\n", page.CurrentPage, page.LastPage, page.Total)
	return nil
}

func newDonationsCreateCmd(app *App) *cobra.Command {
	values := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a donation",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := make(map[string]string, len(values))
			for k, v := range values {
				in[k] = *v
			}
			return runDonationsCreate(cmd.Context(), app, in)
		},
	}

	values["nama_donatur"] = cmd.Flags().String("nama", "", "Donor name")
	values["jumlah_donasi"] = cmd.Flags().String("jumlah", "", "Amount in rupiah")
	values["metode_pembayaran"] = cmd.Flags().String("metode", "tunai", "Payment method (tunai, transfer, qris)")
	values["tanggal_donasi"] = cmd.Flags().String("tanggal", "", "Date (YYYY-MM-DD)")
	values["keterangan"] = cmd.Flags().String("keterangan", "", "Note")

	return cmd
}

func runDonationsCreate(ctx context.Context, app *App, values map[string]string) error {
	user, err := app.currentUser(ctx)
	if err != nil {
		return err
	}

	view := donationsView(app, user)
	form := view.Create(ctx, values)
	if form.HasErrors() {
		return formError(form)
	}

	fmt.Fprintf(app.Out, "✓ %s\n", form.Success)
	if items := view.List.State().Items(); len(items) > 0 {
		d := items[0]
		fmt.Fprintf(app.Out, "  #%d %s %s (%s)\n", d.ID, d.NamaDonatur, d.JumlahDonasi.Rupiah(), d.Status)
	}
	return nil
}
