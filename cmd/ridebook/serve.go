// README: serve runs the HTTP API until SIGINT or SIGTERM.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ridebook/internal/app"
	"ridebook/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the booking API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("ridebook", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("close")
		}
	}()
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("ridebook api stopped")
	return nil
}
