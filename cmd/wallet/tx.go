package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
)

func newTx() *cobra.Command {
	return &cobra.Command{
		Use:   "tx <hash>",
		Short: "Looks up a transaction through the relay",
		Long: `Looks up a transaction through the relay and prints it together with the sender's
pending network nonce and the nonce state the wallet keeps for the sender.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var hash common.Hash
			if err := hash.UnmarshalText([]byte(args[0])); err != nil {
				return errors.Wrapf(err, "invalid transaction hash %q", args[0])
			}

			cfg := config.DefaultServiceConfigFromEnv()

			return command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				ledger := relay.NewClient(s.Relay, cfg.Relay.MaxResponseBytes)

				tx, err := ledger.GetTransactionByHash(ctx, hash)
				if err != nil {
					return err
				}
				if tx == nil {
					return errors.Errorf("transaction %s not found", hash.Hex())
				}

				out := map[string]any{
					"hash":     tx.Hash.Hex(),
					"from":     tx.From.Hex(),
					"nonce":    tx.Nonce,
					"included": tx.Included(),
				}

				networkPending, err := ledger.PendingNonce(ctx, tx.From)
				if err != nil {
					return err
				}
				out["networkPendingNonce"] = networkPending

				lastUsed, ok, err := s.Nonces.LastUsed(ctx, tx.From)
				if err != nil {
					return err
				}
				if ok {
					out["walletLastUsedNonce"] = lastUsed
				}

				pending, err := s.Nonces.Pending(ctx, tx.From)
				if err != nil {
					return err
				}
				if pending != nil {
					out["walletPendingHash"] = pending.Hash.Hex()
					out["walletPendingNonce"] = pending.Nonce
				}

				return printJSON(out)
			})
		},
	}
}
