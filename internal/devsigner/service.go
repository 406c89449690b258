// Package devsigner is a local stand-in for the remote threshold signer. It serves the same
// JSON-RPC methods from a BIP-32 key tree and exists for development and tests only: it holds
// private keys, which the wallet process itself never does.
package devsigner

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/util"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/signer"
)

// Service implements the signer JSON-RPC namespace.
type Service struct {
	seeds    *SeedManager
	keyNames []string
}

func NewService(seeds *SeedManager, keyNames []string) *Service {
	return &Service{seeds: seeds, keyNames: keyNames}
}

func (s *Service) checkKey(keyName string, curve string) error {
	if _, err := keydir.ParseCurve(curve); err != nil {
		return errors.Errorf("unsupported curve %q", curve)
	}
	if len(s.keyNames) > 0 && !util.ContainsString(s.keyNames, keyName) {
		return errors.Errorf("unknown key %q", keyName)
	}
	if !s.seeds.IsInitialized() {
		return errors.New("signer is locked")
	}
	return nil
}

// DerivePublicKey serves signer_derivePublicKey.
func (s *Service) DerivePublicKey(ctx context.Context, req signer.DeriveRequest) (*signer.DeriveResponse, error) {
	if err := s.checkKey(req.KeyName, req.Curve); err != nil {
		return nil, err
	}

	path := DerivationPath(req.KeyName, req.DerivationContext)
	key, err := deriveKey(s.seeds.Seed(), path)
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert derived key")
	}

	util.LogFromContext(ctx).Debug().
		Str("key_name", req.KeyName).
		Str("path", path).
		Msg("Derived public key")

	return &signer.DeriveResponse{
		PublicKey: crypto.CompressPubkey(&privateKey.PublicKey),
		ChainCode: key.ChainCode,
	}, nil
}

// SignDigest serves signer_signDigest and returns [R || S || V] with V in {0, 1}.
func (s *Service) SignDigest(ctx context.Context, req signer.SignRequest) (*signer.SignResponse, error) {
	if err := s.checkKey(req.KeyName, req.Curve); err != nil {
		return nil, err
	}
	if len(req.Digest) != 32 {
		return nil, errors.Errorf("digest must be 32 bytes, got %d", len(req.Digest))
	}

	key, err := deriveKey(s.seeds.Seed(), DerivationPath(req.KeyName, req.DerivationContext))
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert derived key")
	}
	defer zero(key.Key)

	sig, err := crypto.Sign(req.Digest, privateKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign digest")
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	util.LogFromContext(ctx).Debug().Str("key_name", req.KeyName).Msg("Signed digest")

	return &signer.SignResponse{Signature: sig}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
