package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/metrics"
	"github/chapool/go-remote-wallet/internal/util"
	"github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/nonce"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
	"github/chapool/go-remote-wallet/internal/wallet/signer"
)

type Router struct {
	Routes      []*echo.Route
	Root        *echo.Group
	Management  *echo.Group
	APIV1       *echo.Group
	APIV1Wallet *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	// only set when the nonce store is postgres
	DB *sql.DB `wire:"-"`

	Config  config.Server
	Clock   time2.Clock
	Metrics *metrics.Service
	Keys    *keydir.Directory
	Signer  *signer.RPCClient
	Relay   *relay.MeteredGateway
	Nonces  *nonce.Sequencer
	Wallet  wallet.Service
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	db *sql.DB,
	clock time2.Clock,
	metricsService *metrics.Service,
	keys *keydir.Directory,
	signerClient *signer.RPCClient,
	gateway *relay.MeteredGateway,
	nonces *nonce.Sequencer,
	walletService wallet.Service,
) *Server {
	return &Server{
		Config:  cfg,
		DB:      db,
		Clock:   clock,
		Metrics: metricsService,
		Keys:    keys,
		Signer:  signerClient,
		Relay:   gateway,
		Nonces:  nonces,
		Wallet:  walletService,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	if s.Signer != nil {
		log.Debug().Msg("Closing signer connection")
		s.Signer.Close()
	}

	if s.Relay != nil {
		log.Debug().Msg("Closing relay connections")
		s.Relay.Close()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}
