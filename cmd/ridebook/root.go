// README: Root command and the flags shared by subcommands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ridebook/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "ridebook",
	Short:         "Booking dispatch and settlement engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional YAML configuration file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
