package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
)

// Account is the address controlled by the configured remote key.
type Account struct {
	Address common.Address
	KeyName string
	Curve   string
	ChainID int64
}

// Balance is the latest on-chain balance of the account in wei.
type Balance struct {
	Address common.Address
	ChainID int64
	Wei     *big.Int
}

// TransferRequest names the recipient and amount of a transfer. Empty fields fall back to the
// configured defaults.
type TransferRequest struct {
	To    string
	Value *big.Int
}

// Defaults are used for transfers that do not name a recipient or value.
type Defaults struct {
	Recipient common.Address
	Value     *big.Int
}

// BalanceReader reads balances through the relay.
type BalanceReader interface {
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Result is the outcome of ExecuteTransaction.
type Result = executor.Result
