package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jon4hz/agora/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the settings of the current user",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			view, err := a.settings.Load(cmd.Context())
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), view)
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <category.field=value>...",
	Short: "Change and save settings",
	Long: `Change one or more settings and save them to the user record.

Available settings:
  preferences.theme=light|dark
  preferences.language=en|fr
  preferences.fontSize=small|medium|large
  privacy.profileVisibility=true|false
  privacy.onlineStatus=true|false`,
	Example: `agora settings set preferences.theme=dark privacy.onlineStatus=false`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := make([]settingChange, 0, len(args))
		for _, arg := range args {
			c, err := parseSettingChange(arg)
			if err != nil {
				return err
			}
			changes = append(changes, c)
		}

		return withApp(cmd.Context(), func(a *app) error {
			if _, err := a.settings.Load(cmd.Context()); err != nil {
				return err
			}
			for _, c := range changes {
				if err := a.settings.ApplyChange(cmd.Context(), c.Category, c.Field, c.Value); err != nil {
					return err
				}
			}

			err := a.settings.Commit(cmd.Context())
			if n, ok := a.settings.Notification(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), n.Message)
			}
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), a.settings.View())
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

type settingChange struct {
	Category string
	Field    string
	Value    string
}

// parseSettingChange splits an argument of the form category.field=value.
func parseSettingChange(arg string) (settingChange, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return settingChange{}, fmt.Errorf("invalid setting %q, expected category.field=value", arg)
	}
	category, field, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || category == "" || field == "" {
		return settingChange{}, fmt.Errorf("invalid setting name %q, expected category.field", name)
	}
	return settingChange{Category: category, Field: field, Value: strings.TrimSpace(value)}, nil
}

func printSettings(w io.Writer, v settings.View) {
	fmt.Fprintf(w, "Email:                        %s\n", v.Email)
	fmt.Fprintf(w, "preferences.theme:            %s\n", v.Preferences.Theme)
	fmt.Fprintf(w, "preferences.language:         %s\n", v.Preferences.Language)
	fmt.Fprintf(w, "preferences.fontSize:         %s\n", v.Preferences.FontSize)
	fmt.Fprintf(w, "privacy.profileVisibility:    %t\n", v.Privacy.ProfileVisibility)
	fmt.Fprintf(w, "privacy.onlineStatus:         %t\n", v.Privacy.OnlineStatus)
}
