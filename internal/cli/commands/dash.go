package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd(app *App) *cobra.Command {
	var webURL string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open your dashboard in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(cmd.Context(), app, webURL, openBrowser)
		},
	}

	cmd.Flags().StringVar(&webURL, "web", "http://localhost:3000", "Web app URL")

	return cmd
}

func runDash(ctx context.Context, app *App, webURL string, open func(string) error) error {
	user, err := app.currentUser(ctx)
	if err != nil {
		return err
	}

	dashboardURL := strings.TrimRight(webURL, "/") + user.Role.HomePath()
	fmt.Fprintf(app.Out, "Opening %s dashboard...\n", user.Role.Label())
	fmt.Fprintf(app.Out, "URL: %s\n", dashboardURL)

	if err := open(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}
	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
