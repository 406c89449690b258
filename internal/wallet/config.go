package wallet

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github/chapool/go-remote-wallet/internal/config"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// KeyHandleFromConfig builds the key handle named by the wallet config.
func KeyHandleFromConfig(cfg config.Wallet) (keydir.KeyHandle, error) {
	curve, err := keydir.ParseCurve(cfg.Curve)
	if err != nil {
		return keydir.KeyHandle{}, err
	}

	handle := keydir.KeyHandle{Name: cfg.KeyName, Curve: curve}
	if err := handle.Validate(); err != nil {
		return keydir.KeyHandle{}, err
	}

	return handle, nil
}

// ExecutorConfigFromConfig parses the transaction defaults of the wallet config.
func ExecutorConfigFromConfig(cfg config.Wallet) (executor.Config, error) {
	const op = "wallet.ExecutorConfigFromConfig"

	derivationContext, err := hex.DecodeString(strings.TrimPrefix(cfg.DerivationContextHex, "0x"))
	if err != nil {
		return executor.Config{}, walleterr.Wrap(walleterr.KindConfig, op, err)
	}
	if cfg.ChainID <= 0 {
		return executor.Config{}, walleterr.Newf(walleterr.KindConfig, op, "invalid chain id %d", cfg.ChainID)
	}
	if cfg.GasLimit == 0 {
		return executor.Config{}, walleterr.New(walleterr.KindConfig, op, "gas limit must be positive")
	}

	maxFee, err := parseOptionalWei(op, "max fee per gas", cfg.MaxFeePerGasWei)
	if err != nil {
		return executor.Config{}, err
	}
	maxPriorityFee, err := parseOptionalWei(op, "max priority fee per gas", cfg.MaxPriorityFeeWei)
	if err != nil {
		return executor.Config{}, err
	}
	if (maxFee == nil) != (maxPriorityFee == nil) {
		return executor.Config{}, walleterr.New(walleterr.KindConfig, op, "max fee and max priority fee must be set together")
	}
	if maxFee != nil && maxFee.Cmp(maxPriorityFee) < 0 {
		return executor.Config{}, walleterr.New(walleterr.KindConfig, op, "max fee per gas is below the priority fee")
	}

	return executor.Config{
		DerivationContext: derivationContext,
		ChainID:           big.NewInt(cfg.ChainID),
		GasLimit:          cfg.GasLimit,
		MaxFeePerGas:      maxFee,
		MaxPriorityFee:    maxPriorityFee,
		NonceDriftCheck:   cfg.NonceDriftCheck,
	}, nil
}

// DefaultsFromConfig parses the default transfer of the wallet config. An empty recipient is
// allowed; transfers must then name one.
func DefaultsFromConfig(cfg config.Wallet) (Defaults, error) {
	const op = "wallet.DefaultsFromConfig"

	var defaults Defaults
	if cfg.DefaultRecipient != "" {
		recipient, err := address.FromHex(cfg.DefaultRecipient)
		if err != nil {
			return Defaults{}, walleterr.Wrap(walleterr.KindConfig, op, err)
		}
		defaults.Recipient = recipient
	}

	value, err := parseOptionalWei(op, "default value", cfg.DefaultValueWei)
	if err != nil {
		return Defaults{}, err
	}
	defaults.Value = value

	return defaults, nil
}

// ParseWei parses a non-negative decimal wei amount.
func ParseWei(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

func parseOptionalWei(op string, field string, s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil //nolint:nilnil // unset means estimate or require per request
	}

	v, ok := ParseWei(s)
	if !ok {
		return nil, walleterr.Newf(walleterr.KindConfig, op, "invalid %s %q", field, s)
	}
	return v, nil
}
