package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestServiceConfigSecretsAreNotMarshalled(t *testing.T) {
	t.Setenv("DEVSIGNER_MNEMONIC", "abandon abandon about")
	t.Setenv("PGPASSWORD", "hunter2")

	cfg := config.DefaultServiceConfigFromEnv()
	require.Equal(t, "abandon abandon about", cfg.DevSigner.Mnemonic)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "abandon")
	assert.NotContains(t, string(b), "hunter2")
}

func TestWalletDefaults(t *testing.T) {
	t.Setenv("WALLET_NONCE_STORE", "redis")
	t.Setenv("RELAY_ENDPOINTS", "http://a:8545,http://b:8545")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, config.NonceStoreMemory, cfg.Wallet.NonceStore)
	assert.Equal(t, "secp256k1", cfg.Wallet.Curve)
	assert.Equal(t, int64(11155111), cfg.Wallet.ChainID)
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, cfg.Relay.Endpoints)
}

func TestDotEnvLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(envFile, []byte("WALLET_KEY_NAME=dfx_test_key\nSIGNER_TIMEOUT=5s\n"), 0o600))

	loaded := map[string]string{}
	err := config.DotEnvLoad(envFile, func(k, v string) error {
		loaded[k] = v
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"WALLET_KEY_NAME": "dfx_test_key", "SIGNER_TIMEOUT": "5s"}, loaded)

	err = config.DotEnvLoad(filepath.Join(dir, "missing"), func(string, string) error { return nil })
	assert.True(t, os.IsNotExist(err))
}
