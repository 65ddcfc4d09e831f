package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/masjidku/masjidku-web/internal/cli/commands"
	"github.com/masjidku/masjidku-web/internal/config"
	"github.com/masjidku/masjidku-web/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	var backendURL string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "masjidku",
		Short: "Masjidku - mosque administration from the terminal",
		Long: `Masjidku CLI - Work with your mosque's Masjidku backend.

Sign in once and the token is kept in the OS keyring. Set MASJIDKU_TOKEN to
use a token without the keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			app.Logger = logger.New(os.Stderr, level, "console")

			backendCfg, prayerCfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if backendURL == "" {
				backendURL = backendCfg.URL
			}
			app.Connect(backendURL, prayerCfg, nil)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend API URL (default from BACKEND_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend requests")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "masjidku version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewWhoamiCmd(app))
	rootCmd.AddCommand(commands.NewDonationsCmd(app))
	rootCmd.AddCommand(commands.NewArticlesCmd(app))
	rootCmd.AddCommand(commands.NewPrayerCmd(app))
	rootCmd.AddCommand(commands.NewDashCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	app := commands.NewApp(os.Stdout, logger.New(os.Stderr, "warn", "console"))
	if err := NewRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
