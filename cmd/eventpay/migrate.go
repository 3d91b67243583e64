package main

import (
	"fmt"

	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			logger := cfg.Logger.NewLogger()

			return postgres.Migrate(&cfg.Database, postgres.Direction(args[0]), logger)
		},
	}
}
