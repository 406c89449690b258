package probe

import (
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
)

func newLiveness() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long:  `Queries /-/healthy of the locally running server and exits non-zero unless it is healthy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			command.ApplyLoggerConfig(cfg.Logger)

			return probe(cmd.Context(), localURL(cfg.Echo.ListenAddress, "/-/healthy"), cfg.Management.LivenessTimeout, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
