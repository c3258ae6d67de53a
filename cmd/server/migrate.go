// cmd/server/migrate.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/javajoker/artmarket-backend/internal/database"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		database.Close(db)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
