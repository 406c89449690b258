package keydir

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// Directory holds the process-wide remote key identity.
// Once the handle has been read it is pinned: Configure only accepts the identical value,
// so the derived address cannot drift mid-session.
type Directory struct {
	mu         sync.RWMutex
	handle     KeyHandle
	configured bool
	pinned     bool
}

// New creates an unconfigured Directory.
func New() *Directory {
	return &Directory{}
}

// NewConfigured creates a Directory configured with handle.
func NewConfigured(handle KeyHandle) (*Directory, error) {
	d := New()
	if err := d.Configure(handle); err != nil {
		return nil, err
	}
	return d, nil
}

// Configure sets the key identity. Calling it again with the identical handle is a no-op.
func (d *Directory) Configure(handle KeyHandle) error {
	if err := handle.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.configured && d.handle == handle {
		return nil
	}

	if d.pinned {
		return walleterr.Newf(walleterr.KindConfig, "keydir.Configure",
			"key handle %s is in use, refusing to switch to %s", d.handle, handle)
	}

	d.handle = handle
	d.configured = true

	return nil
}

// Reconfigure replaces the key identity even if it is already in use.
// Addresses derived from the previous handle stay valid for their own nonce state,
// but callers must not mix in-flight transfers across the switch.
func (d *Directory) Reconfigure(handle KeyHandle) error {
	if err := handle.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pinned && d.handle != handle {
		log.Warn().
			Str("previous", d.handle.String()).
			Str("next", handle.String()).
			Msg("Reconfiguring remote key handle while in use")
	}

	d.handle = handle
	d.configured = true
	d.pinned = false

	return nil
}

// Current returns the active handle and pins it.
func (d *Directory) Current() (KeyHandle, error) {
	d.mu.RLock()
	if !d.configured {
		d.mu.RUnlock()
		return KeyHandle{}, walleterr.New(walleterr.KindUninitialized, "keydir.Current", "key handle was never configured")
	}
	handle, pinned := d.handle, d.pinned
	d.mu.RUnlock()

	if !pinned {
		d.mu.Lock()
		if d.handle == handle {
			d.pinned = true
		}
		d.mu.Unlock()
	}

	return handle, nil
}

// CurrentOrDefault returns the active handle, or def if none was configured.
func (d *Directory) CurrentOrDefault(def KeyHandle) KeyHandle {
	handle, err := d.Current()
	if err != nil {
		return def
	}
	return handle
}

// IsConfigured reports whether a handle has been set.
func (d *Directory) IsConfigured() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.configured
}
