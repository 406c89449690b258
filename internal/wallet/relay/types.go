package relay

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Gateway is the metered JSON-RPC relay. Every request is quoted first and then paid for
// explicitly; the relay refuses requests that attach fewer cycles than the quote.
type Gateway interface {
	// RequestCost quotes the cycle cost of sending payload with the given response size limit.
	RequestCost(ctx context.Context, payload *Payload, maxResponseBytes uint64) (FeeQuote, error)

	// Request executes payload, paying cycles, and returns the raw JSON-RPC result.
	Request(ctx context.Context, payload *Payload, maxResponseBytes uint64, cycles *uint256.Int) (json.RawMessage, error)
}

// FeeQuote is a one-shot cycle price for a single metered call.
type FeeQuote struct {
	CycleCost *uint256.Int
}

// Payload is a single JSON-RPC call.
type Payload struct {
	Method string
	Params []any
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// Size returns the encoded request size in bytes.
func (p *Payload) Size() (uint64, error) {
	params := p.Params
	if params == nil {
		params = []any{}
	}

	b, err := json.Marshal(envelope{JSONRPC: "2.0", ID: 1, Method: p.Method, Params: params})
	if err != nil {
		return 0, err
	}

	return uint64(len(b)), nil
}

// Transaction is the subset of eth_getTransactionByHash the wallet relies on.
type Transaction struct {
	Hash        common.Hash
	Nonce       uint64
	From        common.Address
	To          *common.Address
	Value       *big.Int
	BlockNumber *big.Int // nil while pending
}

// Included reports whether the transaction has been mined.
func (t *Transaction) Included() bool {
	return t.BlockNumber != nil
}
