package keydir_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

var (
	testKey  = keydir.KeyHandle{Name: "test_key_1", Curve: keydir.CurveSecp256k1}
	otherKey = keydir.KeyHandle{Name: "key_1", Curve: keydir.CurveSecp256k1}
)

func TestCurrentUninitialized(t *testing.T) {
	d := keydir.New()

	_, err := d.Current()
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterr.ErrUninitialized)
	assert.False(t, d.IsConfigured())
	assert.Equal(t, testKey, d.CurrentOrDefault(testKey))
}

func TestConfigureIdempotent(t *testing.T) {
	d, err := keydir.NewConfigured(testKey)
	require.NoError(t, err)

	handle, err := d.Current()
	require.NoError(t, err)
	assert.Equal(t, testKey, handle)

	assert.NoError(t, d.Configure(testKey))
}

func TestConfigureBeforeUseMayChange(t *testing.T) {
	d := keydir.New()
	require.NoError(t, d.Configure(testKey))
	require.NoError(t, d.Configure(otherKey))

	handle, err := d.Current()
	require.NoError(t, err)
	assert.Equal(t, otherKey, handle)
}

func TestConfigureAfterUseRejectsDifferentHandle(t *testing.T) {
	d, err := keydir.NewConfigured(testKey)
	require.NoError(t, err)

	_, err = d.Current()
	require.NoError(t, err)

	err = d.Configure(otherKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterr.ErrConfig)

	handle, err := d.Current()
	require.NoError(t, err)
	assert.Equal(t, testKey, handle)
}

func TestReconfigure(t *testing.T) {
	d, err := keydir.NewConfigured(testKey)
	require.NoError(t, err)
	_, _ = d.Current()

	require.NoError(t, d.Reconfigure(otherKey))
	assert.Equal(t, otherKey, d.CurrentOrDefault(testKey))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		handle  keydir.KeyHandle
		wantErr bool
	}{
		{name: "valid", handle: testKey},
		{name: "empty name", handle: keydir.KeyHandle{Curve: keydir.CurveSecp256k1}, wantErr: true},
		{name: "unknown curve", handle: keydir.KeyHandle{Name: "k", Curve: "ed25519"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := keydir.New().Configure(tt.handle)
			if tt.wantErr {
				assert.ErrorIs(t, err, walleterr.ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCurve(t *testing.T) {
	c, err := keydir.ParseCurve(" SECP256K1 ")
	require.NoError(t, err)
	assert.Equal(t, keydir.CurveSecp256k1, c)

	_, err = keydir.ParseCurve("p256")
	assert.ErrorIs(t, err, walleterr.ErrConfig)
}

func TestCurrentConcurrent(t *testing.T) {
	d, err := keydir.NewConfigured(testKey)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := d.Current()
			assert.NoError(t, err)
			assert.Equal(t, testKey, handle)
		}()
	}
	wg.Wait()

	assert.ErrorIs(t, d.Configure(otherKey), walleterr.ErrConfig)
}
