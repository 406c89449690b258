package wallet

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("wallet",
		newAddress(),
		newBalance(),
		newTransfer(),
		newTx(),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
