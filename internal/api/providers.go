package api

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/metrics"
	"github/chapool/go-remote-wallet/internal/util/db"
	"github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/nonce"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
	"github/chapool/go-remote-wallet/internal/wallet/signer"
)

const dialTimeout = 10 * time.Second

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

// NewDB opens the database backing the nonce store. It returns nil when the volatile store is
// configured.
func NewDB(cfg config.Server) (*sql.DB, error) {
	if cfg.Wallet.NonceStore != config.NonceStorePostgres {
		return nil, nil //nolint:nilnil // no database needed for the memory store
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	return db.Open(ctx, cfg.Database.ConnectionString())
}

func NewMetrics(sqlDB *sql.DB) (*metrics.Service, error) {
	metricsService, err := metrics.New()
	if err != nil {
		return nil, err
	}

	if err := metricsService.RegisterDB(sqlDB); err != nil {
		return nil, err
	}

	return metricsService, nil
}

func NewSigner(cfg config.Server) (*signer.RPCClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	return signer.Dial(ctx, cfg.Signer.Endpoint, cfg.Signer.Timeout)
}

// NewSignerWithClient wraps an already connected signer client, e.g. an in-process one.
func NewSignerWithClient(cfg config.Server, client *rpc.Client) *signer.RPCClient {
	return signer.NewRPCClient(client, cfg.Signer.Timeout)
}

func gatewayConfig(cfg config.Relay) relay.GatewayConfig {
	return relay.GatewayConfig{
		Endpoints:      cfg.Endpoints,
		Timeout:        cfg.Timeout,
		Schedule:       relay.NewCostSchedule(cfg.SubnetNodes),
		Budget:         relay.NewBudget(uint256.NewInt(cfg.CycleBudget)),
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
	}
}

func NewRelayGateway(cfg config.Server, metricsService *metrics.Service) (*relay.MeteredGateway, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	return relay.NewMeteredGateway(ctx, gatewayConfig(cfg.Relay), metricsService)
}

// NewRelayGatewayWithClients builds the gateway on already connected endpoint clients.
func NewRelayGatewayWithClients(cfg config.Server, clients []*rpc.Client, metricsService *metrics.Service) *relay.MeteredGateway {
	return relay.NewMeteredGatewayWithClients(clients, gatewayConfig(cfg.Relay), metricsService)
}

func NewRelayClient(cfg config.Server, gateway *relay.MeteredGateway) *relay.Client {
	return relay.NewClient(gateway, cfg.Relay.MaxResponseBytes)
}

//nolint:ireturn // the store is selected by configuration
func NewNonceStore(cfg config.Server, sqlDB *sql.DB) nonce.Store {
	if sqlDB == nil {
		log.Warn().Msg("Using volatile nonce store, nonces are re-read from the network after a restart")
		return nonce.NewMemoryStore()
	}

	return nonce.NewPostgresStore(sqlDB, cfg.Wallet.ChainID)
}

func NewKeyDirectory(cfg config.Server) (*keydir.Directory, error) {
	handle, err := wallet.KeyHandleFromConfig(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	return keydir.NewConfigured(handle)
}

func NewExecutor(
	cfg config.Server,
	keys *keydir.Directory,
	signerClient *signer.RPCClient,
	ledger *relay.Client,
	nonces *nonce.Sequencer,
	metricsService *metrics.Service,
) (*executor.Executor, error) {
	execCfg, err := wallet.ExecutorConfigFromConfig(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	return executor.New(keys, signerClient, ledger, nonces, execCfg, metricsService), nil
}

//nolint:ireturn // wallet.Service is the caller-facing API
func NewWallet(cfg config.Server, exec *executor.Executor, ledger *relay.Client) (wallet.Service, error) {
	defaults, err := wallet.DefaultsFromConfig(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	return wallet.NewService(exec, ledger, defaults, cfg.Wallet.ChainID), nil
}
