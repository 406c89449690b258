package relay

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

const (
	blockLatest  = "latest"
	blockPending = "pending"

	blockHeaderResponseBytes = 64 * 1024
	placeholderRawTxBytes    = 256
)

// Client is a typed Ethereum JSON-RPC client on top of a metered Gateway. Every call is quoted
// and then paid with exactly the quoted amount.
type Client struct {
	gateway          Gateway
	maxResponseBytes uint64
}

func NewClient(gateway Gateway, maxResponseBytes uint64) *Client {
	if maxResponseBytes == 0 {
		maxResponseBytes = defaultMaxResponseSize
	}

	return &Client{gateway: gateway, maxResponseBytes: maxResponseBytes}
}

func (c *Client) call(ctx context.Context, result any, maxResponseBytes uint64, method string, params ...any) error {
	payload := &Payload{Method: method, Params: params}

	quote, err := c.gateway.RequestCost(ctx, payload, maxResponseBytes)
	if err != nil {
		return walleterr.Wrap(walleterr.KindFeeQuoteUnavailable, "relay.quote."+method, err)
	}

	return c.pay(ctx, result, payload, maxResponseBytes, quote.CycleCost)
}

func (c *Client) pay(ctx context.Context, result any, payload *Payload, maxResponseBytes uint64, cycles *uint256.Int) error {
	raw, err := c.gateway.Request(ctx, payload, maxResponseBytes, cycles)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return walleterr.Wrap(walleterr.KindRemoteRejected, "relay.decode."+payload.Method,
			errors.Wrapf(err, "failed to decode %s result", payload.Method))
	}

	return nil
}

// GetBalance returns the latest balance of addr in wei.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, &result, c.maxResponseBytes, "eth_getBalance", addr, blockLatest); err != nil {
		return nil, err
	}

	return (*big.Int)(&result), nil
}

// GetTransactionCount returns the number of transactions sent from addr as of block
// ("latest" or "pending").
func (c *Client) GetTransactionCount(ctx context.Context, addr common.Address, block string) (uint64, error) {
	if block == "" {
		block = blockLatest
	}

	var result hexutil.Uint64
	if err := c.call(ctx, &result, c.maxResponseBytes, "eth_getTransactionCount", addr, block); err != nil {
		return 0, err
	}

	return uint64(result), nil
}

// PendingNonce is GetTransactionCount against the pending block.
func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	return c.GetTransactionCount(ctx, addr, blockPending)
}

// MaxPriorityFeePerGas returns the node's suggested tip in wei.
func (c *Client) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, &result, c.maxResponseBytes, "eth_maxPriorityFeePerGas"); err != nil {
		return nil, err
	}

	return (*big.Int)(&result), nil
}

// LatestBaseFee returns the base fee of the latest block. Pre-London chains have none.
func (c *Client) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	var header struct {
		BaseFeePerGas *hexutil.Big `json:"baseFeePerGas"`
	}
	if err := c.call(ctx, &header, blockHeaderResponseBytes, "eth_getBlockByNumber", blockLatest, false); err != nil {
		return nil, err
	}

	if header.BaseFeePerGas == nil {
		return nil, walleterr.New(walleterr.KindRemoteRejected, "relay.LatestBaseFee", "latest block has no base fee")
	}

	return (*big.Int)(header.BaseFeePerGas), nil
}

// QuoteSendRawTransaction prices eth_sendRawTransaction before the transaction exists, using a
// placeholder of typical signed transaction size.
func (c *Client) QuoteSendRawTransaction(ctx context.Context) (FeeQuote, error) {
	placeholder := hexutil.Bytes(make([]byte, placeholderRawTxBytes))

	quote, err := c.gateway.RequestCost(ctx, &Payload{Method: "eth_sendRawTransaction", Params: []any{placeholder}}, c.maxResponseBytes)
	if err != nil {
		return FeeQuote{}, walleterr.Wrap(walleterr.KindFeeQuoteUnavailable, "relay.quote.eth_sendRawTransaction", err)
	}

	return quote, nil
}

// SendRawTransaction broadcasts a signed transaction paying a previously obtained quote.
// A quote that no longer covers the actual transaction fails with FeeQuoteUnavailable before
// anything is sent.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte, paid FeeQuote) (common.Hash, error) {
	const op = "relay.SendRawTransaction"

	payload := &Payload{Method: "eth_sendRawTransaction", Params: []any{hexutil.Bytes(raw)}}

	actual, err := c.gateway.RequestCost(ctx, payload, c.maxResponseBytes)
	if err != nil {
		return common.Hash{}, walleterr.Wrap(walleterr.KindFeeQuoteUnavailable, op, err)
	}
	if paid.CycleCost == nil || paid.CycleCost.Lt(actual.CycleCost) {
		return common.Hash{}, walleterr.Newf(walleterr.KindFeeQuoteUnavailable, op,
			"quote does not cover a %d byte transaction: costs %s cycles", len(raw), actual.CycleCost.Dec())
	}

	var hash common.Hash
	if err := c.pay(ctx, &hash, payload, c.maxResponseBytes, paid.CycleCost); err != nil {
		if walleterr.KindOf(err) == walleterr.KindRemoteRejected {
			return common.Hash{}, &walleterr.Error{
				Kind:    walleterr.KindSubmissionRejected,
				Op:      op,
				Message: "transaction rejected by the network",
				Err:     err,
			}
		}
		return common.Hash{}, err
	}

	return hash, nil
}

type rpcTransaction struct {
	Hash        common.Hash     `json:"hash"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Value       *hexutil.Big    `json:"value"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
}

// GetTransactionByHash looks hash up. It returns nil without error when the network does not
// know the transaction.
func (c *Client) GetTransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, c.maxResponseBytes, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var tx rpcTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, walleterr.Wrap(walleterr.KindRemoteRejected, "relay.GetTransactionByHash",
			errors.Wrap(err, "failed to decode transaction"))
	}

	result := &Transaction{
		Hash:  tx.Hash,
		Nonce: uint64(tx.Nonce),
		From:  tx.From,
		To:    tx.To,
	}
	if tx.Value != nil {
		result.Value = (*big.Int)(tx.Value)
	}
	if tx.BlockNumber != nil {
		result.BlockNumber = (*big.Int)(tx.BlockNumber)
	}

	return result, nil
}
