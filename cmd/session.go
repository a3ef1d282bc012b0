package cmd

import (
	"fmt"

	"github.com/jon4hz/agora/internal/apperr"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var loginCmdFlags struct {
	Email string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		email := loginCmdFlags.Email
		if email == "" {
			var err error
			if email, err = p.Text("Email"); err != nil {
				return err
			}
		}
		pwd, err := p.Password("Password")
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			user, err := a.auth.Login(cmd.Context(), email, pwd)
			if err != nil {
				if apperr.MessageKey(err) == apperr.KeyIncorrect {
					return fmt.Errorf("login failed: wrong email or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(user.Username, user.Email))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if a.session.CurrentUser() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			user := a.session.CurrentUser()
			if user == nil {
				return apperr.ErrNotAuthenticated
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:   %s\n", displayName(user.Username, user.Email))
			fmt.Fprintf(out, "ID:     %s\n", user.UserID)
			fmt.Fprintf(out, "Email:  %s\n", user.Email)
			fmt.Fprintf(out, "Status: %s\n", lo.Ternary(a.session.IsOnline(), "online", "offline"))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:       "status <online|offline>",
	Short:     "Set the online status of the current user",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"online", "offline"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if a.session.CurrentUser() == nil {
				return apperr.ErrNotAuthenticated
			}
			if err := a.session.UpdateOnlineStatus(cmd.Context(), args[0] == "online"); err != nil {
				return fmt.Errorf("failed to update online status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "You are now %s.\n", args[0])
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginCmdFlags.Email, "email", "", "Email address to log in with")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, statusCmd)
}

func displayName(username, email string) string {
	if username != "" {
		return fmt.Sprintf("%s <%s>", username, email)
	}
	return email
}
