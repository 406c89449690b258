package metrics_test

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/metrics"
)

func TestServiceCollects(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	m.ObserveTransaction("failed", "UNCONFIRMED", time.Second)
	m.ObserveRelayRequest("eth_getBalance", "ok", uint256.NewInt(1000))
	m.ObserveRelayRequest("eth_getBalance", "ok", uint256.NewInt(500))
	m.IncNonceDrift()
	m.SetCycleBalance(uint256.NewInt(42))

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["wallet_executor_transactions_total"])
	assert.True(t, names["wallet_relay_cycles_spent_total"])
	assert.True(t, names["wallet_nonce_drift_total"])
	assert.True(t, names["wallet_relay_cycle_balance"])

	count, err := testutil.GatherAndCount(m.Registry, "wallet_relay_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilServiceIsNoop(t *testing.T) {
	var m *metrics.Service
	assert.NotPanics(t, func() {
		m.ObserveTransaction("succeeded", "", time.Millisecond)
		m.ObserveRelayRequest("eth_call", "error", nil)
		m.ObserveSignerCall("derive", "ok", time.Millisecond)
		m.IncNonceDrift()
		m.SetCycleBalance(uint256.NewInt(1))
	})
}
