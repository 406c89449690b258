package test

import (
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/router"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/devsigner"
	"github/chapool/go-remote-wallet/internal/test/fakechain"
	"github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/internal/wallet/address"
)

// DevMnemonic is the BIP-39 test mnemonic the development signer of test servers is seeded with.
//
//nolint:dupword // BIP-39 test mnemonic
const DevMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// DefaultRecipient receives transfers that do not name a recipient.
var DefaultRecipient = common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF")

// InitialBalance is the balance the wallet account starts with on the fake chain.
var InitialBalance = big.NewInt(1_000_000_000_000_000_000)

// Env holds the fakes behind a test server.
type Env struct {
	Chain   *fakechain.Chain
	Seeds   *devsigner.SeedManager
	Account common.Address
}

// DefaultTestConfig returns the server config used by WithTestServer.
func DefaultTestConfig(t *testing.T) config.Server {
	t.Helper()

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Wallet.KeyName = "test_key_1"
	cfg.Wallet.DerivationContextHex = "0x01"
	cfg.Wallet.ChainID = 11155111
	cfg.Wallet.GasLimit = 21000
	cfg.Wallet.DefaultRecipient = DefaultRecipient.Hex()
	cfg.Wallet.DefaultValueWei = "1000"
	cfg.Wallet.MaxFeePerGasWei = ""
	cfg.Wallet.MaxPriorityFeeWei = ""
	cfg.Wallet.NonceStore = config.NonceStoreMemory
	cfg.Signer.Timeout = 5 * time.Second
	cfg.Relay.Timeout = 5 * time.Second
	cfg.Relay.RequestsPerSec = 0
	cfg.DevSigner.KeyNames = []string{"test_key_1"}

	return cfg
}

// WithTestServer runs closure against a fully wired server whose signer is an in-process
// development signer and whose relay endpoint is an in-process fake chain.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestConfig(t), func(s *api.Server, _ *Env) {
		closure(s)
	})
}

// WithTestServerEnv is WithTestServer with access to the fakes.
func WithTestServerEnv(t *testing.T, closure func(s *api.Server, env *Env)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestConfig(t), closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server, env *Env)) {
	t.Helper()

	env := NewEnv(t, cfg)

	s, err := api.InitNewServerWithClients(cfg, DialDevSigner(t, env.Seeds, cfg.DevSigner.KeyNames), []*rpc.Client{env.Chain.Dial(t)}, t)
	require.NoError(t, err, "Failed to init server")

	router.Init(s)

	closure(s, env)

	require.Empty(t, s.Shutdown(t.Context()), "Failed to shutdown server")
}

// NewEnv seeds a development signer, starts a fake chain for cfg and funds the account of
// the configured key.
func NewEnv(t *testing.T, cfg config.Server) *Env {
	t.Helper()

	seeds := devsigner.NewSeedManager()
	seeds.Initialize(DevMnemonic, "")

	execCfg, err := wallet.ExecutorConfigFromConfig(cfg.Wallet)
	require.NoError(t, err)

	pub, err := devsigner.PublicKeyAt(seeds.Seed(), devsigner.DerivationPath(cfg.Wallet.KeyName, execCfg.DerivationContext))
	require.NoError(t, err)

	account, err := address.DeriveAddress(&address.PublicKeyMaterial{PublicKey: pub})
	require.NoError(t, err)

	chain := fakechain.New(cfg.Wallet.ChainID)
	chain.SetBalance(account, InitialBalance)

	return &Env{Chain: chain, Seeds: seeds, Account: account}
}

func newDevSignerServer(t *testing.T, seeds *devsigner.SeedManager, keyNames []string) *rpc.Server {
	t.Helper()

	server, err := devsigner.NewRPCServer(devsigner.NewService(seeds, keyNames))
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	return server
}

// DialDevSigner serves a development signer over an in-process JSON-RPC connection.
func DialDevSigner(t *testing.T, seeds *devsigner.SeedManager, keyNames []string) *rpc.Client {
	t.Helper()

	client := rpc.DialInProc(newDevSignerServer(t, seeds, keyNames))
	t.Cleanup(client.Close)

	return client
}

// NewDevSignerHTTPServer serves a development signer over JSON-RPC on a local http listener.
func NewDevSignerHTTPServer(t *testing.T, seeds *devsigner.SeedManager, keyNames []string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(newDevSignerServer(t, seeds, keyNames))
	t.Cleanup(server.Close)

	return server
}

// NewChainHTTPServer serves chain over JSON-RPC on a local http listener.
func NewChainHTTPServer(t *testing.T, chain *fakechain.Chain) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(chain.NewServer(t))
	t.Cleanup(server.Close)

	return server
}
