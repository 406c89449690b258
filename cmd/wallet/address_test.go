package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/devsigner"
	"github/chapool/go-remote-wallet/internal/test"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

func TestAccountForConfiguredKey(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		account, err := accountFor(context.Background(), s, "")
		require.NoError(t, err)
		assert.Equal(t, env.Account, account.Address)
		assert.Equal(t, "test_key_1", account.KeyName)
	})
}

func TestAccountForOtherKey(t *testing.T) {
	cfg := test.DefaultTestConfig(t)
	cfg.DevSigner.KeyNames = []string{"test_key_1", "key_1"}

	test.WithTestServerConfigurable(t, cfg, func(s *api.Server, env *test.Env) {
		ctx := context.Background()

		// pin the configured key first, the switch must still be allowed
		_, err := s.Wallet.GetAddress(ctx)
		require.NoError(t, err)

		account, err := accountFor(ctx, s, "key_1")
		require.NoError(t, err)
		assert.Equal(t, "key_1", account.KeyName)
		assert.Equal(t, "secp256k1", account.Curve)
		assert.NotEqual(t, env.Account, account.Address)

		pub, err := devsigner.PublicKeyAt(env.Seeds.Seed(), devsigner.DerivationPath("key_1", []byte{0x01}))
		require.NoError(t, err)
		expected, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: pub})
		require.NoError(t, err)
		assert.Equal(t, expected, account.Address)
	})
}

func TestAccountForUnknownKey(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		_, err := accountFor(context.Background(), s, "missing_key")
		require.Error(t, err)
		assert.Equal(t, walleterr.KindRemoteRejected, walleterr.KindOf(err))
	})
}
