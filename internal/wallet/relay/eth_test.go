package relay_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/test/fakechain"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

func newTestEthClient(t *testing.T, chain *fakechain.Chain) *relay.Client {
	t.Helper()
	return relay.NewClient(newTestGateway(t, nil, chain.Dial(t)), 0)
}

func signedTransfer(t *testing.T, nonce uint64) []byte {
	t.Helper()
	return signedTransferWithData(t, nonce, nil)
}

func signedTransferWithData(t *testing.T, nonce uint64, data []byte) []byte {
	t.Helper()

	key, err := crypto.HexToECDSA("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	to := common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF")
	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(testChainID)), &types.DynamicFeeTx{
		ChainID:   big.NewInt(testChainID),
		Nonce:     nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
		Data:      data,
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	return raw
}

func TestClientReads(t *testing.T) {
	chain := fakechain.New(testChainID)
	chain.SetBalance(testAccount, big.NewInt(1_000_000))
	chain.SetNonce(testAccount, 5)
	chain.SetBaseFee(big.NewInt(30))

	client := newTestEthClient(t, chain)
	ctx := context.Background()

	balance, err := client.GetBalance(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), balance.Int64())

	nonce, err := client.GetTransactionCount(ctx, testAccount, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	nonce, err = client.PendingNonce(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	tip, err := client.MaxPriorityFeePerGas(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000_000), tip.Int64())

	baseFee, err := client.LatestBaseFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), baseFee.Int64())
}

func TestClientLatestBaseFeeMissing(t *testing.T) {
	chain := fakechain.New(testChainID)
	chain.SetBaseFee(nil)

	_, err := newTestEthClient(t, chain).LatestBaseFee(context.Background())
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
}

func TestClientQuoteUnavailable(t *testing.T) {
	chain := fakechain.New(testChainID)
	client := relay.NewClient(newTestGateway(t, nil, chain.Dial(t)), 4*1024*1024)

	_, err := client.GetBalance(context.Background(), testAccount)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindFeeQuoteUnavailable, walleterr.KindOf(err))

	_, err = client.QuoteSendRawTransaction(context.Background())
	require.Error(t, err)
	assert.Equal(t, walleterr.KindFeeQuoteUnavailable, walleterr.KindOf(err))

	assert.Equal(t, 0, chain.Calls("eth_getBalance"))
}

func TestClientSendAndLookup(t *testing.T) {
	chain := fakechain.New(testChainID)
	client := newTestEthClient(t, chain)
	ctx := context.Background()

	quote, err := client.QuoteSendRawTransaction(ctx)
	require.NoError(t, err)

	hash, err := client.SendRawTransaction(ctx, signedTransfer(t, 0), quote)
	require.NoError(t, err)

	tx, err := client.GetTransactionByHash(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, hash, tx.Hash)
	assert.Equal(t, uint64(0), tx.Nonce)
	assert.Equal(t, testAccount, tx.From)
	assert.True(t, tx.Included())
	assert.Equal(t, int64(1), tx.Value.Int64())
}

func TestClientSendRejected(t *testing.T) {
	chain := fakechain.New(testChainID)
	client := newTestEthClient(t, chain)
	ctx := context.Background()

	quote, err := client.QuoteSendRawTransaction(ctx)
	require.NoError(t, err)

	_, err = client.SendRawTransaction(ctx, signedTransfer(t, 3), quote)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindSubmissionRejected, walleterr.KindOf(err))
	assert.Contains(t, err.Error(), "nonce too high")
}

func TestClientSendOutgrowsQuote(t *testing.T) {
	chain := fakechain.New(testChainID)
	budget := relay.NewBudget(uint256.NewInt(1_000_000_000_000))
	client := relay.NewClient(newTestGateway(t, budget, chain.Dial(t)), 0)
	ctx := context.Background()

	quote, err := client.QuoteSendRawTransaction(ctx)
	require.NoError(t, err)

	_, err = client.SendRawTransaction(ctx, signedTransferWithData(t, 0, make([]byte, 1024)), quote)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindFeeQuoteUnavailable, walleterr.KindOf(err))
	assert.Equal(t, 0, chain.Calls("eth_sendRawTransaction"))
	assert.Equal(t, uint64(1_000_000_000_000), budget.Balance().Uint64())
	assert.Equal(t, uint64(0), chain.Nonce(testAccount))
}

func TestClientSendUnavailableIsNotRejection(t *testing.T) {
	chain := fakechain.New(testChainID)
	rpcClient := chain.Dial(t)
	client := relay.NewClient(newTestGateway(t, nil, rpcClient), 0)
	ctx := context.Background()

	quote, err := client.QuoteSendRawTransaction(ctx)
	require.NoError(t, err)

	rpcClient.Close()

	_, err = client.SendRawTransaction(ctx, signedTransfer(t, 0), quote)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteUnavailable, walleterr.KindOf(err))
}

func TestClientTransactionNotFound(t *testing.T) {
	chain := fakechain.New(testChainID)

	tx, err := newTestEthClient(t, chain).GetTransactionByHash(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestClientRemoteFailure(t *testing.T) {
	chain := fakechain.New(testChainID)
	chain.Fail("eth_getTransactionCount", errors.New("internal error"))

	_, err := newTestEthClient(t, chain).GetTransactionCount(context.Background(), testAccount, "latest")
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
}
