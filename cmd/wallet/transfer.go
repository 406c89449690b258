package wallet

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/wallet"
)

const (
	toFlag    = "to"
	valueFlag = "value"
)

func newTransfer() *cobra.Command {
	var to, value string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfers value from the account",
		Long: `Transfers value from the account and waits for the relay to report the transaction.

Without flags the configured WALLET_DEFAULT_RECIPIENT and WALLET_DEFAULT_VALUE_WEI are used.
Exits non-zero unless the transfer succeeded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req *wallet.TransferRequest
			if to != "" || value != "" {
				req = &wallet.TransferRequest{To: to}
				if value != "" {
					v, ok := wallet.ParseWei(value)
					if !ok {
						return errors.Errorf("invalid value %q, expected a decimal wei amount", value)
					}
					req.Value = v
				}
			}

			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				result, err := s.Wallet.ExecuteTransaction(ctx, req)
				if err != nil {
					return err
				}

				if err := printJSON(result); err != nil {
					return err
				}

				if !result.Succeeded() {
					return errors.Errorf("transfer failed: %s", result.Reason)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&to, toFlag, "", "Recipient address (defaults to WALLET_DEFAULT_RECIPIENT)")
	cmd.Flags().StringVar(&value, valueFlag, "", "Amount in wei (defaults to WALLET_DEFAULT_VALUE_WEI)")

	return cmd
}
