package wallet

import (
	"context"

	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// VerifyAccount derives the account of the configured key and compares it with the expected
// address. This is used during startup to catch a signer that serves a different key than the
// operator funded. An empty expected address skips the check.
func VerifyAccount(ctx context.Context, svc Service, expected string) (bool, error) {
	log := log.With().Str("component", "account_verification").Logger()

	if expected == "" {
		log.Debug().Msg("No expected account configured, skipping verification")
		return true, nil
	}

	want, err := address.FromHex(expected)
	if err != nil {
		return false, walleterr.Wrap(walleterr.KindConfig, "wallet.VerifyAccount", err)
	}

	account, err := svc.GetAddress(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to derive account for verification")
		return false, err
	}

	if account.Address != want {
		log.Warn().
			Str("derived", account.Address.Hex()).
			Str("expected", want.Hex()).
			Msg("Account verification failed: addresses do not match")
		return false, nil
	}

	log.Info().Str("account", account.Address.Hex()).Msg("Account verification successful")
	return true, nil
}
