package wallet

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
)

func newBalance() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Prints the latest balance of the account in wei",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				balance, err := s.Wallet.GetBalance(ctx)
				if err != nil {
					return err
				}

				return printJSON(map[string]any{
					"address": balance.Address.Hex(),
					"chainId": balance.ChainID,
					"wei":     balance.Wei.String(),
				})
			})
		},
	}
}
