package devsigner

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/devsigner"
)

const outFlag = "out"

func newKeystore() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Encrypts DEVSIGNER_MNEMONIC into a keystore file",
		Long: `Encrypts DEVSIGNER_MNEMONIC into a scrypt keystore file that "app devsigner" can be
started from via DEVSIGNER_KEYSTORE_PATH. The password is read twice from the terminal.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			mnemonic := strings.TrimSpace(cfg.DevSigner.Mnemonic)
			if mnemonic == "" {
				return errors.New("DEVSIGNER_MNEMONIC is required")
			}

			password, err := devsigner.PromptPassword("Enter new keystore password: ")
			if err != nil {
				return err
			}
			confirm, err := devsigner.PromptPassword("Confirm keystore password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			ks, err := devsigner.EncryptMnemonic(mnemonic, password, devsigner.DefaultScryptParams())
			if err != nil {
				return err
			}

			if err := devsigner.WriteKeystoreFile(out, ks); err != nil {
				return err
			}

			log.Info().Str("path", out).Msg("Keystore written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, outFlag, "o", "devsigner-keystore.json", "Path of the keystore file to write")

	return cmd
}
