package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/agora/internal/models"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the profile of the current user",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			p, err := a.profile.Load(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p, a.profile.PictureURL())
			return nil
		})
	},
}

var profileEditCmdFlags struct {
	Username        string
	Bio             string
	Location        string
	ToggleInterests []string
	ToggleSkills    []string
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the profile",
	Example: `agora profile edit --bio "Backend developer" --location Zurich
  agora profile edit --toggle-interest music --toggle-skill python`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if _, err := a.profile.Load(cmd.Context()); err != nil {
				return err
			}

			fields := map[string]string{
				"username": profileEditCmdFlags.Username,
				"bio":      profileEditCmdFlags.Bio,
				"location": profileEditCmdFlags.Location,
			}
			for field, value := range fields {
				if !cmd.Flags().Changed(field) {
					continue
				}
				if err := a.profile.SetField(field, value); err != nil {
					return err
				}
			}
			for _, tag := range profileEditCmdFlags.ToggleInterests {
				if err := a.profile.ToggleTag(models.TagInterests, tag); err != nil {
					return err
				}
			}
			for _, tag := range profileEditCmdFlags.ToggleSkills {
				if err := a.profile.ToggleTag(models.TagSkills, tag); err != nil {
					return err
				}
			}

			saved, err := a.profile.Save(cmd.Context(), a.profile.Form())
			if err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}
			printProfile(cmd.OutOrStdout(), saved, a.profile.PictureURL())
			return nil
		})
	},
}

var profilePictureCmd = &cobra.Command{
	Use:   "picture <file>",
	Short: "Upload a profile picture",
	Long:  `Upload a JPEG, PNG, GIF or WebP picture. Large pictures are scaled down before they are stored.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open picture: %w", err)
		}
		defer f.Close() //nolint:errcheck

		return withApp(cmd.Context(), func(a *app) error {
			if _, err := a.profile.Load(cmd.Context()); err != nil {
				return err
			}
			if err := a.profile.SetPicture(f); err != nil {
				return err
			}
			saved, err := a.profile.Save(cmd.Context(), a.profile.Form())
			if err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored a %s profile picture.\n", humanize.Bytes(uint64(len(saved.ProfilePicture))))
			return nil
		})
	},
}

func init() {
	profileEditCmd.Flags().StringVar(&profileEditCmdFlags.Username, "username", "", "Display name")
	profileEditCmd.Flags().StringVar(&profileEditCmdFlags.Bio, "bio", "", "Short biography")
	profileEditCmd.Flags().StringVar(&profileEditCmdFlags.Location, "location", "", "Location")
	profileEditCmd.Flags().StringSliceVar(&profileEditCmdFlags.ToggleInterests, "toggle-interest", nil,
		"Add or remove an interest ("+strings.Join(models.InterestOptions, ", ")+")")
	profileEditCmd.Flags().StringSliceVar(&profileEditCmdFlags.ToggleSkills, "toggle-skill", nil,
		"Add or remove a skill ("+strings.Join(models.SkillOptions, ", ")+")")

	profileCmd.AddCommand(profileShowCmd, profileEditCmd, profilePictureCmd)
	rootCmd.AddCommand(profileCmd)
}

func printProfile(w io.Writer, p models.Profile, picture string) {
	fmt.Fprintf(w, "Username:   %s\n", p.Username)
	fmt.Fprintf(w, "Email:      %s\n", p.Email)
	fmt.Fprintf(w, "Bio:        %s\n", p.Bio)
	fmt.Fprintf(w, "Location:   %s\n", p.Location)
	fmt.Fprintf(w, "Interests:  %s\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(w, "Skills:     %s\n", strings.Join(p.Skills, ", "))
	if strings.HasPrefix(picture, "data:") {
		fmt.Fprintf(w, "Picture:    uploaded (%s)\n", humanize.Bytes(uint64(len(picture))))
	} else {
		fmt.Fprintf(w, "Picture:    %s\n", picture)
	}
	if p.LastUpdated != nil {
		fmt.Fprintf(w, "Updated:    %s (%s)\n", timediff.TimeDiff(*p.LastUpdated), p.LastUpdated.Format(time.RFC3339))
	}
}
