package relay_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/test/fakechain"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

const testChainID = 11155111

var testAccount = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")

func newTestGateway(t *testing.T, budget *relay.Budget, clients ...*rpc.Client) *relay.MeteredGateway {
	t.Helper()

	return relay.NewMeteredGatewayWithClients(clients, relay.GatewayConfig{
		Timeout:  5 * time.Second,
		Schedule: relay.NewCostSchedule(13),
		Budget:   budget,
	}, nil)
}

func balancePayload() *relay.Payload {
	return &relay.Payload{Method: "eth_getBalance", Params: []any{testAccount, "latest"}}
}

func TestGatewayRequest(t *testing.T) {
	chain := fakechain.New(testChainID)
	chain.SetBalance(testAccount, big.NewInt(42))

	budget := relay.NewBudget(uint256.NewInt(1_000_000_000_000))
	gateway := newTestGateway(t, budget, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	raw, err := gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.NoError(t, err)
	assert.JSONEq(t, `"0x2a"`, string(raw))

	assert.Equal(t, quote.CycleCost.Dec(), budget.Spent().Dec())
	assert.Equal(t, 1, chain.Calls("eth_getBalance"))
}

func TestGatewayOverpaymentChargesQuoteOnly(t *testing.T) {
	chain := fakechain.New(testChainID)
	budget := relay.NewBudget(uint256.NewInt(1_000_000_000_000))
	gateway := newTestGateway(t, budget, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	attached := new(uint256.Int).Mul(quote.CycleCost, uint256.NewInt(2))
	_, err = gateway.Request(ctx, balancePayload(), 1024, attached)
	require.NoError(t, err)

	assert.Equal(t, quote.CycleCost.Dec(), budget.Spent().Dec())
}

func TestGatewayRequestUnderpaid(t *testing.T) {
	chain := fakechain.New(testChainID)
	budget := relay.NewBudget(uint256.NewInt(1_000_000_000_000))
	gateway := newTestGateway(t, budget, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	short := new(uint256.Int).SubUint64(quote.CycleCost, 1)
	_, err = gateway.Request(ctx, balancePayload(), 1024, short)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))

	assert.Equal(t, 0, chain.Calls("eth_getBalance"))
	assert.Equal(t, "0", budget.Spent().Dec())
}

func TestGatewayBudgetExhausted(t *testing.T) {
	chain := fakechain.New(testChainID)
	budget := relay.NewBudget(uint256.NewInt(1000))
	gateway := newTestGateway(t, budget, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	_, err = gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
	assert.ErrorIs(t, err, relay.ErrInsufficientCycles)
	assert.Equal(t, "1000", budget.Balance().Dec())
	assert.Equal(t, 0, chain.Calls("eth_getBalance"))
}

func TestGatewayResponseLimit(t *testing.T) {
	chain := fakechain.New(testChainID)
	gateway := newTestGateway(t, nil, chain.Dial(t))

	ctx := context.Background()

	_, err := gateway.RequestCost(ctx, balancePayload(), 3*1024*1024)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))

	chain.SetBalance(testAccount, big.NewInt(1_000_000_000_000))
	quote, err := gateway.RequestCost(ctx, balancePayload(), 4)
	require.NoError(t, err)

	_, err = gateway.Request(ctx, balancePayload(), 4, quote.CycleCost)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
}

func TestGatewayRemoteError(t *testing.T) {
	chain := fakechain.New(testChainID)
	chain.Fail("eth_getBalance", errors.New("header not found"))

	budget := relay.NewBudget(uint256.NewInt(1_000_000_000_000))
	gateway := newTestGateway(t, budget, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	_, err = gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
	assert.Contains(t, err.Error(), "header not found")

	// the request reached the endpoint, so it is paid for
	assert.Equal(t, quote.CycleCost.Dec(), budget.Spent().Dec())
}

func TestGatewayFailover(t *testing.T) {
	broken := fakechain.New(testChainID).Dial(t)
	broken.Close()

	chain := fakechain.New(testChainID)
	chain.SetBalance(testAccount, big.NewInt(7))

	gateway := newTestGateway(t, nil, broken, chain.Dial(t))

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	_, err = gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteUnavailable, walleterr.KindOf(err))
	assert.True(t, walleterr.IsRetryable(err))

	raw, err := gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.NoError(t, err)
	assert.JSONEq(t, `"0x7"`, string(raw))
}

func TestGatewayRateLimit(t *testing.T) {
	chain := fakechain.New(testChainID)
	gateway := relay.NewMeteredGatewayWithClients([]*rpc.Client{chain.Dial(t)}, relay.GatewayConfig{
		RequestsPerSec: 0.001,
		Burst:          1,
	}, nil)

	ctx := context.Background()
	quote, err := gateway.RequestCost(ctx, balancePayload(), 1024)
	require.NoError(t, err)

	_, err = gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = gateway.Request(ctx, balancePayload(), 1024, quote.CycleCost)
	require.Error(t, err)
	assert.Equal(t, walleterr.KindRemoteUnavailable, walleterr.KindOf(err))
	assert.Equal(t, 1, chain.Calls("eth_getBalance"))
}

func TestNewMeteredGatewayRequiresEndpoint(t *testing.T) {
	_, err := relay.NewMeteredGateway(context.Background(), relay.GatewayConfig{}, nil)
	require.Error(t, err)
}
