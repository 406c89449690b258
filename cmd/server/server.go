package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/router"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/util/command"
	"github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/migrations"
)

const (
	migrateFlag      = "migrate"
	skipVerifyFlag   = "skip-verify"
	verifyTimeout    = 30 * time.Second
	shutdownDeadline = 10 * time.Second
)

type Flags struct {
	ApplyMigrations bool
	SkipVerify      bool
}

func New() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the HTTP API of the wallet.

Requires configuration through ENV and a reachable signer and relay.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.ApplyMigrations, migrateFlag, "m", false, "Apply database migrations before starting (postgres nonce store only)")
	cmd.Flags().BoolVar(&flags.SkipVerify, skipVerifyFlag, false, "Skip comparing the signer's account with WALLET_EXPECTED_ADDRESS")

	return cmd
}

func runServer(ctx context.Context, flags Flags) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.ApplyLoggerConfig(cfg.Logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if err := prepare(ctx, s, flags); err != nil {
		_ = s.Shutdown(context.WithoutCancel(ctx))
		return err
	}

	router.Init(s)

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Starting server")
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			log.Error().Err(err).Msg("Failed to start server")
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		return errs[0]
	}

	log.Info().Msg("Server shut down")
	return nil
}

// prepare applies migrations and verifies the signer account before the listener opens.
func prepare(ctx context.Context, s *api.Server, flags Flags) error {
	if flags.ApplyMigrations && s.DB != nil {
		n, err := migrations.Up(s.DB)
		if err != nil {
			log.Error().Err(err).Msg("Failed to apply migrations")
			return err
		}
		log.Info().Int("applied", n).Msg("Applied migrations")
	}

	if flags.SkipVerify {
		return nil
	}

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	ok, err := wallet.VerifyAccount(verifyCtx, s.Wallet, s.Config.Wallet.ExpectedAddress)
	if err != nil {
		log.Error().Err(err).Msg("Failed to verify signer account")
		return err
	}
	if !ok {
		return errors.New("signer account does not match WALLET_EXPECTED_ADDRESS")
	}

	return nil
}
