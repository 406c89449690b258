//go:build wireinject

package api

import (
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/wire"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/wallet/nonce"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewDB,
	NewMetrics,
	NewRelayClient,
	NewNonceStore,
	nonce.NewSequencer,
	NewKeyDirectory,
	NewExecutor,
	NewWallet,
)

// InitNewServer returns a new Server instance that dials the configured signer and relay endpoints.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewSigner, NewRelayGateway, NewClock, NoTest)
	return new(Server), nil
}

// InitNewServerWithClients returns a new Server instance talking to the given signer and relay clients.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithClients(
	_ config.Server,
	_ *rpc.Client,
	_ []*rpc.Client,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet, NewSignerWithClient, NewRelayGatewayWithClients, NewClock)
	return new(Server), nil
}
