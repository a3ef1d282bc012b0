package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jon4hz/agora/internal/i18n"
	"github.com/jon4hz/agora/internal/preferences"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the display theme",
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current theme",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			printTheme(cmd.OutOrStdout(), a.theme.Theme())
			return nil
		})
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between dark and light mode",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.theme.ToggleDarkMode(cmd.Context()); err != nil {
				return fmt.Errorf("failed to toggle theme: %w", err)
			}
			printTheme(cmd.OutOrStdout(), a.theme.Theme())
			return nil
		})
	},
}

var themeFontSizeCmd = &cobra.Command{
	Use:   "font-size <px>",
	Short: fmt.Sprintf("Set the base font size (%d-%d px)", preferences.MinFontSize, preferences.MaxFontSize),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		px, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid font size %q: %w", args[0], err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			changed, err := a.theme.ChangeFontSize(cmd.Context(), px)
			if err != nil {
				return fmt.Errorf("failed to change font size: %w", err)
			}
			if !changed {
				return fmt.Errorf("font size must be a whole number between %d and %d", preferences.MinFontSize, preferences.MaxFontSize)
			}
			printTheme(cmd.OutOrStdout(), a.theme.Theme())
			return nil
		})
	},
}

var languageCmd = &cobra.Command{
	Use:   "language",
	Short: "Show or change the interface language",
}

var languageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current language",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Language: %s (available: %v)\n", a.language.Language(), i18n.Default.Languages())
			return nil
		})
	},
}

var languageSetCmd = &cobra.Command{
	Use:       "set <code>",
	Short:     "Set the interface language",
	Args:      cobra.ExactArgs(1),
	ValidArgs: i18n.Supported,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.language.SetLanguage(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to set language: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Language: %s\n", a.language.Language())
			return nil
		})
	},
}

func init() {
	themeCmd.AddCommand(themeShowCmd, themeToggleCmd, themeFontSizeCmd)
	languageCmd.AddCommand(languageShowCmd, languageSetCmd)
	rootCmd.AddCommand(themeCmd, languageCmd)
}

func printTheme(w io.Writer, t preferences.Theme) {
	fmt.Fprintf(w, "Mode:       %s\n", lo.Ternary(t.DarkMode, "dark", "light"))
	fmt.Fprintf(w, "Font size:  %dpx (small %.1f, medium %.1f, large %.1f)\n",
		t.FontSizePixels, t.FontSizes.Small, t.FontSizes.Medium, t.FontSizes.Large)
	fmt.Fprintf(w, "Colors:     background %s, text %s\n", t.Colors.Background, t.Colors.Text)
}
