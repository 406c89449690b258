package env

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the config resolved from ENV",
		Long: `Prints the config resolved from ENV as JSON.

Sensitive values (passwords, mnemonics) are never printed.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()

			b, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(b))
			return nil
		},
	}
}
