package devsigner

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/devsigner"
	"github/chapool/go-remote-wallet/internal/util/command"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devsigner",
		Short: "Runs a local stand-in for the remote signer (development only)",
		Long: `Runs a local stand-in for the remote signer (development only).

The key tree is seeded from DEVSIGNER_KEYSTORE_PATH (password from DEVSIGNER_PASSWORD or a prompt)
or from DEVSIGNER_MNEMONIC. Serves the signer JSON-RPC methods on DEVSIGNER_LISTEN_ADDRESS.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			command.ApplyLoggerConfig(cfg.Logger)

			seeds := devsigner.NewSeedManager()
			if err := devsigner.Unlock(cfg.DevSigner, seeds, devsigner.PromptPassword); err != nil {
				log.Error().Err(err).Msg("Failed to unlock dev signer")
				return err
			}
			defer seeds.Clear()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return devsigner.Serve(ctx, cfg.DevSigner, devsigner.NewService(seeds, cfg.DevSigner.KeyNames))
		},
	}

	cmd.AddCommand(newKeystore())

	return cmd
}
