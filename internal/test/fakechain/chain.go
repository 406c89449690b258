// Package fakechain serves a minimal in-memory Ethereum JSON-RPC node for tests. Submitted
// transactions are validated against the sender's nonce and mined immediately.
package fakechain

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type Chain struct {
	mu sync.Mutex

	chainID  *big.Int
	baseFee  *big.Int
	tip      *big.Int
	block    uint64
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	txs      map[common.Hash]*minedTx
	failures map[string]error
	calls    map[string]int

	// DropSubmissions accepts transactions without ever mining them.
	DropSubmissions bool
}

type minedTx struct {
	tx     *types.Transaction
	from   common.Address
	number uint64
}

func New(chainID int64) *Chain {
	return &Chain{
		chainID:  big.NewInt(chainID),
		baseFee:  big.NewInt(1_000_000_000),
		tip:      big.NewInt(1_500_000_000),
		block:    1,
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		txs:      make(map[common.Hash]*minedTx),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// NewServer registers the chain on a new RPC server, which is stopped when the test ends.
func (c *Chain) NewServer(t *testing.T) *rpc.Server {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &ethAPI{chain: c}))
	t.Cleanup(server.Stop)

	return server
}

// Dial registers the chain on an in-process RPC server and returns a client for it.
func (c *Chain) Dial(t *testing.T) *rpc.Client {
	t.Helper()

	client := rpc.DialInProc(c.NewServer(t))
	t.Cleanup(client.Close)

	return client
}

func (c *Chain) SetBalance(addr common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(wei)
}

// SetNonce sets the confirmed transaction count of addr, e.g. to simulate sends from elsewhere.
func (c *Chain) SetNonce(addr common.Address, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces[addr] = nonce
}

func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[addr]
}

// SetBaseFee sets the latest block base fee; nil simulates a pre-London chain.
func (c *Chain) SetBaseFee(wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseFee = wei
}

// Fail makes every call to method return err until cleared with a nil err.
func (c *Chain) Fail(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, method)
		return
	}
	c.failures[method] = err
}

// Calls returns how often method was invoked.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Transaction returns a mined transaction and its sender.
func (c *Chain) Transaction(hash common.Hash) (*types.Transaction, common.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mined, ok := c.txs[hash]
	if !ok {
		return nil, common.Address{}, false
	}
	return mined.tx, mined.from, true
}

// enter counts the call and returns the injected failure, if any. Callers hold c.mu.
func (c *Chain) enter(method string) error {
	c.calls[method]++
	return c.failures[method]
}

type ethAPI struct {
	chain *Chain
}

func (api *ethAPI) GetBalance(addr common.Address, _ string) (*hexutil.Big, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_getBalance"); err != nil {
		return nil, err
	}

	balance, ok := c.balances[addr]
	if !ok {
		balance = new(big.Int)
	}
	return (*hexutil.Big)(new(big.Int).Set(balance)), nil
}

func (api *ethAPI) GetTransactionCount(addr common.Address, _ string) (hexutil.Uint64, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_getTransactionCount"); err != nil {
		return 0, err
	}
	return hexutil.Uint64(c.nonces[addr]), nil
}

func (api *ethAPI) MaxPriorityFeePerGas() (*hexutil.Big, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_maxPriorityFeePerGas"); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(new(big.Int).Set(c.tip)), nil
}

type rpcHeader struct {
	Number        hexutil.Uint64 `json:"number"`
	BaseFeePerGas *hexutil.Big   `json:"baseFeePerGas,omitempty"`
}

func (api *ethAPI) GetBlockByNumber(_ string, _ bool) (*rpcHeader, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_getBlockByNumber"); err != nil {
		return nil, err
	}

	header := &rpcHeader{Number: hexutil.Uint64(c.block)}
	if c.baseFee != nil {
		header.BaseFeePerGas = (*hexutil.Big)(new(big.Int).Set(c.baseFee))
	}
	return header, nil
}

func (api *ethAPI) SendRawTransaction(_ context.Context, raw hexutil.Bytes) (common.Hash, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_sendRawTransaction"); err != nil {
		return common.Hash{}, err
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, errors.Wrap(err, "rlp")
	}

	if tx.ChainId().Cmp(c.chainID) != 0 {
		return common.Hash{}, errors.Errorf("invalid chain id %s", tx.ChainId())
	}

	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "invalid sender")
	}

	expected := c.nonces[from]
	switch {
	case tx.Nonce() < expected:
		return common.Hash{}, errors.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	case tx.Nonce() > expected:
		return common.Hash{}, errors.Errorf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}

	if c.DropSubmissions {
		return tx.Hash(), nil
	}

	c.block++
	c.nonces[from] = expected + 1
	c.txs[tx.Hash()] = &minedTx{tx: tx, from: from, number: c.block}

	if tx.To() != nil && tx.Value().Sign() > 0 {
		to := *tx.To()
		if c.balances[to] == nil {
			c.balances[to] = new(big.Int)
		}
		c.balances[to].Add(c.balances[to], tx.Value())
		if c.balances[from] != nil {
			c.balances[from].Sub(c.balances[from], tx.Value())
		}
	}

	return tx.Hash(), nil
}

type rpcTransaction struct {
	Hash        common.Hash     `json:"hash"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Value       *hexutil.Big    `json:"value"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
}

func (api *ethAPI) GetTransactionByHash(hash common.Hash) (*rpcTransaction, error) {
	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter("eth_getTransactionByHash"); err != nil {
		return nil, err
	}

	mined, ok := c.txs[hash]
	if !ok {
		return nil, nil
	}

	return &rpcTransaction{
		Hash:        mined.tx.Hash(),
		Nonce:       hexutil.Uint64(mined.tx.Nonce()),
		From:        mined.from,
		To:          mined.tx.To(),
		Value:       (*hexutil.Big)(mined.tx.Value()),
		BlockNumber: (*hexutil.Big)(new(big.Int).SetUint64(mined.number)),
	}, nil
}
