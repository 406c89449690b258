package nonce

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PendingSubmission is a broadcast transaction whose confirmation has not been observed yet.
type PendingSubmission struct {
	Account     common.Address
	Nonce       uint64
	Hash        common.Hash
	SubmittedAt time.Time
}

// Store persists the last confirmed nonce and the pending submission per account.
type Store interface {
	// LastUsed returns the last confirmed nonce; ok is false when the account has no entry.
	LastUsed(ctx context.Context, account common.Address) (lastUsed uint64, ok bool, err error)

	// RecordConfirmed raises the entry to n. Lower values are ignored.
	RecordConfirmed(ctx context.Context, account common.Address, n uint64, at time.Time) error

	// Pending returns the pending submission of account or nil.
	Pending(ctx context.Context, account common.Address) (*PendingSubmission, error)

	SetPending(ctx context.Context, pending PendingSubmission) error

	// ClearPending removes the pending submission of account if it still refers to hash.
	ClearPending(ctx context.Context, account common.Address, hash common.Hash) error
}

// MemoryStore is the volatile Store. Its state is lost on restart, after which the network
// count is authoritative again.
type MemoryStore struct {
	mu       sync.RWMutex
	lastUsed map[common.Address]uint64
	pending  map[common.Address]PendingSubmission
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lastUsed: make(map[common.Address]uint64),
		pending:  make(map[common.Address]PendingSubmission),
	}
}

func (m *MemoryStore) LastUsed(_ context.Context, account common.Address) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.lastUsed[account]
	return n, ok, nil
}

func (m *MemoryStore) RecordConfirmed(_ context.Context, account common.Address, n uint64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.lastUsed[account]; ok && existing >= n {
		return nil
	}
	m.lastUsed[account] = n

	return nil
}

func (m *MemoryStore) Pending(_ context.Context, account common.Address) (*PendingSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pending[account]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) SetPending(_ context.Context, pending PendingSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[pending.Account] = pending

	return nil
}

func (m *MemoryStore) ClearPending(_ context.Context, account common.Address, hash common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[account]; ok && p.Hash == hash {
		delete(m.pending, account)
	}

	return nil
}
