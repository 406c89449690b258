// Package nonce hands out transaction nonces per account. It prefers its own record of the last
// confirmed nonce over the network's transaction count, which can lag behind recent submissions,
// and never hands out a value at or below a confirmed one.
package nonce

import (
	"context"
	"sync"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/metrics"
)

// ObservedFn returns the network-observed transaction count of the account.
type ObservedFn func(ctx context.Context) (uint64, error)

type Sequencer struct {
	store   Store
	clock   time2.Clock
	metrics *metrics.Service
	logger  zerolog.Logger

	mu sync.Mutex
	// one entry per account ever acquired, never removed; bounded by the number of keys served
	locks map[common.Address]chan struct{}
}

func NewSequencer(store Store, clock time2.Clock, metricsService *metrics.Service) *Sequencer {
	if clock == nil {
		clock = time2.DefaultClock
	}

	return &Sequencer{
		store:   store,
		clock:   clock,
		metrics: metricsService,
		logger:  log.With().Str("component", "nonce_sequencer").Logger(),
		locks:   make(map[common.Address]chan struct{}),
	}
}

// Acquire blocks until the caller holds the account's critical section or ctx is done.
// The returned release func is safe to call more than once.
func (s *Sequencer) Acquire(ctx context.Context, account common.Address) (func(), error) {
	s.mu.Lock()
	lock, ok := s.locks[account]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[account] = lock
	}
	s.mu.Unlock()

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "failed to acquire nonce lock for %s", account.Hex())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-lock })
	}, nil
}

// NextNonce returns lastUsed+1 when the account has a cached entry and the observed count
// otherwise. observed is only called without a cache entry.
func (s *Sequencer) NextNonce(ctx context.Context, account common.Address, observed ObservedFn) (uint64, error) {
	lastUsed, ok, err := s.store.LastUsed(ctx, account)
	if err != nil {
		return 0, err
	}
	if ok {
		return lastUsed + 1, nil
	}

	count, err := observed(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("account", account.Hex()).
		Uint64("nonce", count).
		Msg("No cached nonce, using network transaction count")

	return count, nil
}

// RecordConfirmed marks n as used. Recording a value at or below the current entry is a no-op.
func (s *Sequencer) RecordConfirmed(ctx context.Context, account common.Address, n uint64) error {
	return s.store.RecordConfirmed(ctx, account, n, s.clock.Now())
}

// LastUsed exposes the cached entry.
func (s *Sequencer) LastUsed(ctx context.Context, account common.Address) (uint64, bool, error) {
	return s.store.LastUsed(ctx, account)
}

// CheckDrift compares the network transaction count with the cache and reports whether they
// disagree. Disagreement is logged and counted but never corrected.
func (s *Sequencer) CheckDrift(ctx context.Context, account common.Address, observedCount uint64) (bool, error) {
	lastUsed, ok, err := s.store.LastUsed(ctx, account)
	if err != nil {
		return false, err
	}
	if !ok || observedCount == lastUsed+1 {
		return false, nil
	}

	s.logger.Warn().
		Str("account", account.Hex()).
		Uint64("cached_last_used", lastUsed).
		Uint64("network_count", observedCount).
		Msg("Network transaction count disagrees with cached nonce")
	s.metrics.IncNonceDrift()

	return true, nil
}

// SetPending remembers a broadcast transaction until its confirmation is observed.
func (s *Sequencer) SetPending(ctx context.Context, account common.Address, n uint64, hash common.Hash) error {
	return s.store.SetPending(ctx, PendingSubmission{
		Account:     account,
		Nonce:       n,
		Hash:        hash,
		SubmittedAt: s.clock.Now(),
	})
}

func (s *Sequencer) Pending(ctx context.Context, account common.Address) (*PendingSubmission, error) {
	return s.store.Pending(ctx, account)
}

func (s *Sequencer) ClearPending(ctx context.Context, account common.Address, hash common.Hash) error {
	return s.store.ClearPending(ctx, account, hash)
}
