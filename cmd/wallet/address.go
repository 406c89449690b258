package wallet

import (
	"context"

	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
)

const keyNameFlag = "key-name"

func newAddress() *cobra.Command {
	var keyName string

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the account address of the configured key",
		Long: `Prints the account address of the configured key.

With --key-name the address of another key held by the signer is derived instead,
e.g. to look up a new key before switching WALLET_KEY_NAME to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				account, err := accountFor(ctx, s, keyName)
				if err != nil {
					return err
				}

				return printJSON(map[string]any{
					"address": account.Address.Hex(),
					"keyName": account.KeyName,
					"curve":   account.Curve,
					"chainId": account.ChainID,
				})
			})
		},
	}

	cmd.Flags().StringVar(&keyName, keyNameFlag, "", "Key name to derive the address for (defaults to WALLET_KEY_NAME)")

	return cmd
}

// accountFor derives the account of keyName on the configured curve, or of the configured key
// when keyName is empty.
func accountFor(ctx context.Context, s *api.Server, keyName string) (*wallet.Account, error) {
	if keyName != "" {
		current := s.Keys.CurrentOrDefault(keydir.KeyHandle{Curve: keydir.CurveSecp256k1})

		if err := s.Keys.Reconfigure(keydir.KeyHandle{Name: keyName, Curve: current.Curve}); err != nil {
			return nil, err
		}
	}

	return s.Wallet.GetAddress(ctx)
}
