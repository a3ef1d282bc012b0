package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/agora/internal/models"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the users collection",
}

var usersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import users from a JSON file",
	Long: `Merge the users of a JSON array into the users collection.
Existing records with the same userid are replaced, new ones are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read users file: %w", err)
		}
		incoming, err := models.DecodeUsers(string(data))
		if err != nil {
			return fmt.Errorf("failed to parse users file: %w", err)
		}
		for i := range incoming {
			if err := incoming[i].Validate(); err != nil {
				return fmt.Errorf("invalid user at index %d: %w", i, err)
			}
		}

		return withApp(cmd.Context(), func(a *app) error {
			var added, replaced int
			err := models.UpdateUsers(cmd.Context(), a.store, func(users []models.User) ([]models.User, error) {
				users, added, replaced = mergeUsers(users, incoming)
				return users, nil
			})
			if err != nil {
				return fmt.Errorf("failed to import users: %w", err)
			}
			log.Info("imported users", "added", added, "replaced", replaced)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			users, err := models.LoadUsers(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tUSERNAME\tLAST ONLINE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.UserID, u.Email, lo.Ternary(u.Username != "", u.Username, "-"), lastOnline(u))
			}
			return w.Flush()
		})
	},
}

func init() {
	usersCmd.AddCommand(usersImportCmd, usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

// mergeUsers replaces users with a matching userid and appends the rest.
func mergeUsers(users, incoming []models.User) (merged []models.User, added, replaced int) {
	for _, u := range incoming {
		if idx := models.FindUser(users, u.UserID.String()); idx >= 0 {
			users[idx] = u
			replaced++
			continue
		}
		users = append(users, u)
		added++
	}
	return users, added, replaced
}

func lastOnline(u models.User) string {
	if u.Profile == nil || u.Profile.Privacy == nil || u.Profile.Privacy.LastOnline == nil {
		return "never"
	}
	return timediff.TimeDiff(*u.Profile.Privacy.LastOnline)
}
