package devsigner

import (
	"crypto/sha512"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// BIP39: seed = PBKDF2(mnemonic, "mnemonic" + password, 2048, 64, SHA512)
const (
	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64
)

// SeedManager holds the master seed in memory.
type SeedManager struct {
	mu   sync.RWMutex
	seed []byte
}

func NewSeedManager() *SeedManager {
	return &SeedManager{}
}

// Initialize derives the seed from mnemonic and password.
func (m *SeedManager) Initialize(mnemonic string, password string) {
	seed := pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+password),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.clear()
	m.seed = seed
}

// Seed returns a copy of the seed, nil before Initialize.
func (m *SeedManager) Seed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *SeedManager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

// Clear zeroes the seed.
func (m *SeedManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clear()
}

func (m *SeedManager) clear() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}
