// cmd/server/seed.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/javajoker/artmarket-backend/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo accounts and listings",
	Long: `Creates demo accounts and listings. Every demo account uses the
password "` + database.DemoPassword + `". Existing rows are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		return database.SeedInitialData(db)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
