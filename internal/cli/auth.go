package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dashforge/supergrid/pkg/session"
)

// authCommand creates the auth command with subcommands.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Superset authentication",
		Long: `Log in to a Superset host and manage stored sessions.

Credentials come from the active profile (config file, SUPERGRID_HOST and
SUPERGRID_USERNAME overrides). The password is read from SUPERGRID_PASSWORD
or prompted for, and is never written to disk. Sessions are stored in
~/.config/supergrid/sessions/`,
	}

	cmd.AddCommand(c.authLoginCommand())
	cmd.AddCommand(c.authLogoutCommand())
	cmd.AddCommand(c.authStatusCommand())

	return cmd
}

// authLoginCommand creates the login subcommand.
func (c *CLI) authLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a session",
		Long: `Log in to the active profile's Superset host.

The access and refresh tokens are saved locally so later commands can
reuse them without asking for the password again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prof, err := c.loadProfile()
			if err != nil {
				return err
			}
			store, err := session.NewFileStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}

			if existing, _ := store.Get(ctx, prof.Name); existing != nil {
				printInfo("Already logged in as %s", existing.Username)
				printDetail("Run 'supergrid auth logout' first to switch accounts")
				return nil
			}

			password, err := readPassword(prof.Username)
			if err != nil {
				return err
			}

			loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			spinner := newSpinnerWithContext(loginCtx, "Authenticating...")
			spinner.Start()

			client, err := c.authenticate(loginCtx, prof, password, store)
			if err != nil {
				spinner.StopWithError("Login failed")
				return err
			}
			spinner.Stop()

			printSuccess("Logged in as %s", prof.Username)
			printKeyValue("Host", StyleLink.Render(prof.Host))
			printKeyValue("Profile", prof.Name)
			if sess := client.Session(prof.Name); sess != nil {
				printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			}
			printNextStep("Browse dashboards", "supergrid dashboards list")
			return nil
		},
	}
}

// authLogoutCommand creates the logout subcommand.
func (c *CLI) authLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session for the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := c.loadProfile()
			if err != nil {
				return err
			}
			store, err := session.NewFileStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.Delete(cmd.Context(), prof.Name); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// authStatusCommand creates the status subcommand.
func (c *CLI) authStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prof, err := c.loadProfile()
			if err != nil {
				return err
			}
			store, err := session.NewFileStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			sess, err := store.Get(ctx, prof.Name)
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			if sess == nil {
				return fmt.Errorf("not logged in (run 'supergrid auth login' first)")
			}

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Verifying session...")
			spinner.Start()

			client, err := c.connect(ctx)
			if err != nil {
				spinner.StopWithError("Session invalid")
				return err
			}
			user, err := client.Me(ctx)
			if err != nil {
				spinner.StopWithError("Session invalid")
				return fmt.Errorf("verify session: %w", err)
			}
			spinner.Stop()

			printSuccess("Superset Session")
			printKeyValue("Username", user.Username)
			if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
				printKeyValue("Name", name)
			}
			if user.Email != "" {
				printKeyValue("Email", user.Email)
			}
			printKeyValue("Host", StyleLink.Render(prof.Host))
			printKeyValue("Profile", prof.Name)
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			printDetail("Session stored in %s", store.Path())
			if left := time.Until(sess.ExpiresAt); left < 3*24*time.Hour {
				printWarning("Session expires in %s, log in again soon", left.Round(time.Hour))
			}

			return nil
		},
	}
}
