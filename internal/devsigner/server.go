package devsigner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/wallet/signer"
	"golang.org/x/term"
)

const shutdownTimeout = 10 * time.Second

// PasswordPrompt reads a password interactively.
type PasswordPrompt func(prompt string) (string, error)

// Unlock initializes seeds from the configured mnemonic, or from the keystore file when a
// keystore path is set. A missing password is read through prompt.
func Unlock(cfg config.DevSigner, seeds *SeedManager, prompt PasswordPrompt) error {
	password := cfg.Password

	if cfg.KeystorePath != "" {
		ks, err := ReadKeystoreFile(cfg.KeystorePath)
		if err != nil {
			return err
		}

		if password == "" {
			password, err = prompt("Enter keystore password: ")
			if err != nil {
				return errors.Wrap(err, "failed to read password")
			}
		}

		mnemonic, err := DecryptMnemonic(ks, password)
		if err != nil {
			return errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
		}

		seeds.Initialize(mnemonic, password)
		log.Info().Str("keystore", cfg.KeystorePath).Msg("Dev signer unlocked from keystore")

		return nil
	}

	if strings.TrimSpace(cfg.Mnemonic) == "" {
		return errors.New("either DEVSIGNER_KEYSTORE_PATH or DEVSIGNER_MNEMONIC is required")
	}

	seeds.Initialize(strings.TrimSpace(cfg.Mnemonic), password)
	log.Warn().Msg("Dev signer unlocked from plaintext mnemonic, do not use outside development")

	return nil
}

// NewRPCServer registers service under the signer namespace.
func NewRPCServer(service *Service) (*rpc.Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName(signer.Namespace, service); err != nil {
		return nil, errors.Wrap(err, "failed to register signer service")
	}

	return server, nil
}

// NewEcho mounts the JSON-RPC server at / next to a liveness probe.
func NewEcho(rpcServer *rpc.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	e.GET("/-/healthy", func(c echo.Context) error {
		return c.String(http.StatusOK, "Ready.")
	})
	e.POST("/", echo.WrapHandler(rpcServer))

	return e
}

// Serve runs the dev signer until ctx is canceled.
func Serve(ctx context.Context, cfg config.DevSigner, service *Service) error {
	rpcServer, err := NewRPCServer(service)
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	e := NewEcho(rpcServer)

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.ListenAddress).Msg("Starting dev signer")
		if err := e.Start(cfg.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "dev signer stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down dev signer")
	}

	return nil
}

// PromptPassword reads a password from the terminal without echoing it.
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}
