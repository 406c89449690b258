package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/util/db"
	"github/chapool/go-remote-wallet/migrations"
)

const connectTimeout = 10 * time.Second

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies all pending migrations of the nonce store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			command.ApplyLoggerConfig(cfg.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
			defer cancel()

			sqlDB, err := db.Open(ctx, cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			n, err := migrations.Up(sqlDB)
			if err != nil {
				log.Error().Err(err).Msg("Failed to apply migrations")
				return err
			}

			log.Info().Int("applied", n).Msg("Applied migrations")
			return nil
		},
	}
}
