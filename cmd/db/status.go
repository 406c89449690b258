package db

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/util/db"
	"github/chapool/go-remote-wallet/migrations"
)

func newStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Lists the migrations not yet applied",
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

			pending, err := migrations.Pending(sqlDB)
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("No pending migrations.")
				return nil
			}

			for _, m := range pending {
				fmt.Println(m.Id)
			}

			return nil
		},
	}
}
