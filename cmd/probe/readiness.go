package probe

import (
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
)

func newReadiness() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long:  `Queries /-/ready of the locally running server and exits non-zero unless it is ready.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			command.ApplyLoggerConfig(cfg.Logger)

			return probe(cmd.Context(), localURL(cfg.Echo.ListenAddress, "/-/ready"), cfg.Management.ReadinessTimeout, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
