package cmd

import (
	"fmt"

	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run database migrations to set up or update the sqlite store schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Type != config.StoreTypeSQLite {
			fmt.Printf("The %s store has no schema, nothing to migrate.\n", cfg.Store.Type)
			return nil
		}

		// opening the backend runs the auto migration
		db, err := store.NewSQLiteBackend(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		fmt.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
