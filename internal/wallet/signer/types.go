package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
)

// Service is the capability surface of the remote threshold signer.
// Private key bytes never cross this interface.
type Service interface {
	// DerivePublicKey asks the signer for the public key of handle under derivationContext.
	DerivePublicKey(ctx context.Context, handle keydir.KeyHandle, derivationContext []byte) (*address.PublicKeyMaterial, error)

	// SignDigest signs a 32 byte digest and returns the 65 byte [R || S || V] signature, V in {0, 1}.
	// The public key for the same handle and context must have been derived first.
	SignDigest(ctx context.Context, handle keydir.KeyHandle, derivationContext []byte, digest common.Hash) ([]byte, error)
}

// JSON-RPC wire format shared with the signer service.
const (
	Namespace             = "signer"
	MethodDerivePublicKey = Namespace + "_derivePublicKey"
	MethodSignDigest      = Namespace + "_signDigest"
)

type DeriveRequest struct {
	KeyName           string        `json:"keyName"`
	Curve             string        `json:"curve"`
	DerivationContext hexutil.Bytes `json:"derivationContext"`
}

type DeriveResponse struct {
	PublicKey hexutil.Bytes `json:"publicKey"`
	ChainCode hexutil.Bytes `json:"chainCode"`
}

type SignRequest struct {
	KeyName           string        `json:"keyName"`
	Curve             string        `json:"curve"`
	DerivationContext hexutil.Bytes `json:"derivationContext"`
	Digest            hexutil.Bytes `json:"digest"`
}

type SignResponse struct {
	Signature hexutil.Bytes `json:"signature"`
}

const (
	compactSigLength   = 64
	recoverableSigLen  = 65
	legacyRecoveryBase = 27
)
