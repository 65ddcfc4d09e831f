package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/masjidku/masjidku-web/internal/backend"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Masjidku backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set MASJIDKU_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MASJIDKU_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, app *App, email, password string) error {
	// Environment variables are useful for scripts
	if email == "" {
		email = os.Getenv("MASJIDKU_EMAIL")
	}
	if password == "" {
		password = os.Getenv("MASJIDKU_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or MASJIDKU_EMAIL env var)")
	}

	if password == "" {
		p, err := app.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		password = p
	}

	fmt.Fprintf(app.Out, "Logging in to %s...\n", app.client.BaseURL())

	resp, err := app.client.Login(ctx, backend.Credentials{}, email, password)
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok && apiErr.Message != "" {
			return fmt.Errorf("login failed: %s", apiErr.Message)
		}
		return fmt.Errorf("login failed: %w", err)
	}
	if !resp.User.Role.Valid() {
		return fmt.Errorf("login failed: account %s has no known role", resp.User.Email)
	}

	if err := app.session.Login(ctx, resp.User, resp.BearerToken()); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Fprintln(app.Out, "✓ Login successful!")
	fmt.Fprintf(app.Out, "  User: %s (%s)\n", resp.User.Name, resp.User.Email)
	fmt.Fprintf(app.Out, "  Role: %s\n", resp.User.Role.Label())
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), app)
		},
	}
}

func runLogout(ctx context.Context, app *App) error {
	if err := app.session.Logout(ctx); err != nil {
		return fmt.Errorf("failed to remove stored token: %w", err)
	}
	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), app)
		},
	}
}

func runWhoami(ctx context.Context, app *App) error {
	user, err := app.currentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "%s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(app.Out, "Role: %s\n", user.Role.Label())
	return nil
}
