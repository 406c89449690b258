package nonce_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/metrics"
	"github/chapool/go-remote-wallet/internal/test"
	"github/chapool/go-remote-wallet/internal/wallet/nonce"
)

var (
	accountA = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	accountB = common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF")
)

func observedCount(count uint64, calls *int) nonce.ObservedFn {
	return func(context.Context) (uint64, error) {
		if calls != nil {
			*calls++
		}
		return count, nil
	}
}

func newTestSequencer(t *testing.T) *nonce.Sequencer {
	t.Helper()
	return nonce.NewSequencer(nonce.NewMemoryStore(), time2.NewMockClock(time.Now()), nil)
}

func TestNextNonceFreshAccount(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)

	calls := 0
	n, err := seq.NextNonce(ctx, accountA, observedCount(0, &calls))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
	assert.Equal(t, 1, calls)

	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 0))

	n, err = seq.NextNonce(ctx, accountA, observedCount(0, &calls))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, 1, calls, "cached accounts must not consult the network")
}

func TestNextNonceStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)

	var got []uint64
	for i := 0; i < 5; i++ {
		n, err := seq.NextNonce(ctx, accountA, observedCount(7, nil))
		require.NoError(t, err)
		got = append(got, n)
		require.NoError(t, seq.RecordConfirmed(ctx, accountA, n))
	}

	assert.Equal(t, []uint64{7, 8, 9, 10, 11}, got)
}

func TestNextNonceWithoutConfirmationRepeats(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)
	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 3))

	first, err := seq.NextNonce(ctx, accountA, observedCount(0, nil))
	require.NoError(t, err)
	second, err := seq.NextNonce(ctx, accountA, observedCount(0, nil))
	require.NoError(t, err)

	assert.Equal(t, uint64(4), first)
	assert.Equal(t, first, second)
}

func TestRecordConfirmedMonotonic(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)

	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 5))
	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 3))
	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 5))

	lastUsed, ok, err := seq.LastUsed(ctx, accountA)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), lastUsed)
}

func TestNextNonceObservedError(t *testing.T) {
	seq := newTestSequencer(t)

	_, err := seq.NextNonce(context.Background(), accountA, func(context.Context) (uint64, error) {
		return 0, errors.New("relay down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestAccountsAreIndependent(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)
	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 10))

	n, err := seq.NextNonce(ctx, accountB, observedCount(2, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestCheckDrift(t *testing.T) {
	ctx := context.Background()
	metricsService, err := metrics.New()
	require.NoError(t, err)

	seq := nonce.NewSequencer(nonce.NewMemoryStore(), nil, metricsService)

	drifted, err := seq.CheckDrift(ctx, accountA, 9)
	require.NoError(t, err)
	assert.False(t, drifted, "no cache entry, nothing to compare")

	require.NoError(t, seq.RecordConfirmed(ctx, accountA, 4))

	drifted, err = seq.CheckDrift(ctx, accountA, 5)
	require.NoError(t, err)
	assert.False(t, drifted)

	drifted, err = seq.CheckDrift(ctx, accountA, 9)
	require.NoError(t, err)
	assert.True(t, drifted)

	// drift is reported, never corrected
	n, err := seq.NextNonce(ctx, accountA, observedCount(9, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	assert.InDelta(t, 1, test.CounterValue(t, metricsService.Registry, "wallet_nonce_drift_total"), 0)
}

func TestPendingSubmission(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	seq := nonce.NewSequencer(nonce.NewMemoryStore(), time2.NewMockClock(now), nil)

	pending, err := seq.Pending(ctx, accountA)
	require.NoError(t, err)
	assert.Nil(t, pending)

	hash := common.HexToHash("0xabc")
	require.NoError(t, seq.SetPending(ctx, accountA, 4, hash))

	pending, err = seq.Pending(ctx, accountA)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, uint64(4), pending.Nonce)
	assert.Equal(t, hash, pending.Hash)
	assert.Equal(t, now, pending.SubmittedAt)

	// clearing a different hash keeps the record
	require.NoError(t, seq.ClearPending(ctx, accountA, common.HexToHash("0xdef")))
	pending, err = seq.Pending(ctx, accountA)
	require.NoError(t, err)
	require.NotNil(t, pending)

	require.NoError(t, seq.ClearPending(ctx, accountA, hash))
	pending, err = seq.Pending(ctx, accountA)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestAcquireSerializesAccount(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)

	release, err := seq.Acquire(ctx, accountA)
	require.NoError(t, err)

	// other accounts are not blocked
	releaseB, err := seq.Acquire(ctx, accountB)
	require.NoError(t, err)
	releaseB()

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = seq.Acquire(timeoutCtx, accountA)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()

	release, err = seq.Acquire(ctx, accountA)
	require.NoError(t, err)
	release()
}

func TestAcquireNoDuplicateNonces(t *testing.T) {
	ctx := context.Background()
	seq := newTestSequencer(t)

	const runs = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got = make(map[uint64]int)
	)

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := seq.Acquire(ctx, accountA)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n, err := seq.NextNonce(ctx, accountA, observedCount(0, nil))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, seq.RecordConfirmed(ctx, accountA, n))

			mu.Lock()
			got[n]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, got, runs)
	for n, count := range got {
		assert.Equal(t, 1, count, "nonce %d issued more than once", n)
	}
}
