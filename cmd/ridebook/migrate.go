// README: migrate applies the embedded schema migrations.
package main

import (
	"github.com/spf13/cobra"

	"ridebook/internal/infra"
	"ridebook/internal/logging"
	"ridebook/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.New("migrate", cfg.Log.Level, cfg.Log.Format)

		pool, err := infra.NewDB(cmd.Context(), cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := infra.Migrate(cmd.Context(), pool, migrations.FS)
		if err != nil {
			return err
		}
		log.Info().Strs("applied", applied).Msg("migrations up to date")
		return nil
	},
}
