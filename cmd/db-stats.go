package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/store"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the keys held by the sqlite store with their size and last update.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Type != config.StoreTypeSQLite {
			return fmt.Errorf("db-stats needs the sqlite store, configured store is %s", cfg.Store.Type)
		}

		db, err := store.NewSQLiteBackend(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		entries, err := db.Entries(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		total := lo.SumBy(entries, func(e store.Entry) int {
			return len(e.Value)
		})

		fmt.Println("Database Statistics:")
		fmt.Printf("Database: %s\n", cfg.Store.Path)
		fmt.Printf("Total Keys: %d\n", len(entries))
		fmt.Printf("Total Size: %s\n", humanize.Bytes(uint64(total)))

		if len(entries) > 0 {
			latest := lo.MaxBy(entries, func(a, b store.Entry) bool {
				return a.UpdatedAt.After(b.UpdatedAt)
			})
			fmt.Printf("Last Write: %s (%s)\n", latest.UpdatedAt.Format(time.RFC3339), latest.Key)

			fmt.Println("\nKeys:")
			for _, e := range entries {
				fmt.Printf("  %-20s %10s  updated %s\n", e.Key, humanize.Bytes(uint64(len(e.Value))), timediff.TimeDiff(e.UpdatedAt))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
