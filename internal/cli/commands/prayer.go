package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/masjidku/masjidku-web/internal/prayer"
)

// NewPrayerCmd creates the prayer command
func NewPrayerCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "prayer",
		Aliases: []string{"sholat"},
		Short:   "Show the prayer schedule for the mosque location",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
				}
				day = parsed.Add(12 * time.Hour)
			}
			return runPrayer(cmd.Context(), app, day)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")

	return cmd
}

func runPrayer(ctx context.Context, app *App, day time.Time) error {
	cfg := app.prayer
	client := prayer.NewClient(cfg.APIURL, cfg.Latitude, cfg.Longitude, cfg.Method, app.Logger)

	times, err := client.Fetch(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to fetch prayer times: %w", err)
	}

	header := times.Date
	if times.Hijri != "" {
		header += " / " + times.Hijri
	}
	fmt.Fprintf(app.Out, "Jadwal sholat %s\n\n", header)

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	for _, e := range times.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Time)
	}
	w.Flush()
	return nil
}
