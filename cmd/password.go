package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jon4hz/agora/internal/apperr"
	"github.com/jon4hz/agora/internal/password"
	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the password of the current user",
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the password",
	Long: `Change the password of the current user. The form locks after too many wrong
current passwords. Leave the current password empty to cancel.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return changePassword(cmd, a)
		})
	},
}

func init() {
	passwordCmd.AddCommand(passwordChangeCmd)
	rootCmd.AddCommand(passwordCmd)
}

func changePassword(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	t := a.language.Translate
	interactive := isInteractive(cmd.InOrStdin())

	fmt.Fprintln(out, t("setPassword.title"))
	for {
		current, err := p.Password(t("setPassword.currentPassword"))
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Fprintln(out, t("setPassword.cancel"))
			return nil
		}
		newPassword, err := p.Password(t("setPassword.newPassword"))
		if err != nil {
			return err
		}
		printStrength(out, a, newPassword)
		confirm, err := p.Password(t("setPassword.confirmPassword"))
		if err != nil {
			return err
		}

		err = a.password.Submit(cmd.Context(), current, newPassword, confirm)
		if err == nil {
			fmt.Fprintln(out, a.password.Message())
			return waitForRedirect(cmd, a)
		}

		fmt.Fprintln(out, a.password.Message())
		if errors.Is(err, apperr.ErrPolicyViolation) {
			printRequirements(out, a, password.Check(newPassword, confirm))
		}

		retry := errors.Is(err, apperr.ErrInvalidCredential) || errors.Is(err, apperr.ErrPolicyViolation)
		if !retry || !interactive || a.password.State() == password.StateLocked {
			return err
		}
	}
}

func printStrength(w io.Writer, a *app, pwd string) {
	if pwd == "" {
		return
	}
	score, level := password.Strength(pwd)
	fmt.Fprintf(w, "%s: %s (%d/5)\n", a.language.Translate("setPassword.strength.label"), a.language.Translate(level.Key()), score)
}

func printRequirements(w io.Writer, a *app, r password.Requirements) {
	fmt.Fprintln(w, a.language.Translate("setPassword.requirements.title"))
	for _, rule := range r.Failed() {
		fmt.Fprintf(w, "  - %s\n", a.language.Translate("setPassword.requirements."+rule))
	}
}

// waitForRedirect blocks until the workflow navigates back to the settings.
func waitForRedirect(cmd *cobra.Command, a *app) error {
	// the redirect task fires after the configured delay, give it some slack
	timeout := time.NewTimer(a.cfg.Password.RedirectDelay + 5*time.Second)
	defer timeout.Stop()

	select {
	case path := <-a.redirects:
		fmt.Fprintf(cmd.ErrOrStderr(), "Returning to %s\n", path)
	case <-timeout.C:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}
	return nil
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}
