package signer

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// RPCClient talks JSON-RPC to the remote signer.
type RPCClient struct {
	client  *rpc.Client
	timeout time.Duration

	mu      sync.RWMutex
	derived map[string]*ecdsa.PublicKey // session cache: handle + context -> confirmed public key
}

var _ Service = (*RPCClient)(nil)

// Dial connects to the signer at endpoint (http, ws or ipc).
func Dial(ctx context.Context, endpoint string, timeout time.Duration) (*RPCClient, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial signer at %s", endpoint)
	}

	return NewRPCClient(client, timeout), nil
}

// NewRPCClient wraps an existing rpc.Client. A zero timeout means the caller's context decides.
func NewRPCClient(client *rpc.Client, timeout time.Duration) *RPCClient {
	return &RPCClient{
		client:  client,
		timeout: timeout,
		derived: make(map[string]*ecdsa.PublicKey),
	}
}

// Close closes the underlying connection.
func (c *RPCClient) Close() {
	c.client.Close()
}

// DerivePublicKey implements Service.
func (c *RPCClient) DerivePublicKey(ctx context.Context, handle keydir.KeyHandle, derivationContext []byte) (*address.PublicKeyMaterial, error) {
	const op = "signer.DerivePublicKey"

	if err := handle.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resp DeriveResponse
	err := c.client.CallContext(ctx, &resp, MethodDerivePublicKey, &DeriveRequest{
		KeyName:           handle.Name,
		Curve:             string(handle.Curve),
		DerivationContext: derivationContext,
	})
	if err != nil {
		return nil, classify(op, err)
	}

	pubKey, err := address.ParsePublicKey(resp.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "signer returned an invalid public key")
	}

	c.mu.Lock()
	c.derived[sessionKey(handle, derivationContext)] = pubKey.ToECDSA()
	c.mu.Unlock()

	return &address.PublicKeyMaterial{
		PublicKey: bytes.Clone(resp.PublicKey),
		ChainCode: bytes.Clone(resp.ChainCode),
	}, nil
}

// SignDigest implements Service.
func (c *RPCClient) SignDigest(ctx context.Context, handle keydir.KeyHandle, derivationContext []byte, digest common.Hash) ([]byte, error) {
	const op = "signer.SignDigest"

	c.mu.RLock()
	pubKey := c.derived[sessionKey(handle, derivationContext)]
	c.mu.RUnlock()

	if pubKey == nil {
		return nil, walleterr.New(walleterr.KindRemoteRejected, op, "public key for this derivation context was not derived in the current session")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resp SignResponse
	err := c.client.CallContext(ctx, &resp, MethodSignDigest, &SignRequest{
		KeyName:           handle.Name,
		Curve:             string(handle.Curve),
		DerivationContext: derivationContext,
		Digest:            digest.Bytes(),
	})
	if err != nil {
		return nil, classify(op, err)
	}

	sig, err := normalizeSignature(digest, resp.Signature, pubKey)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindRemoteRejected, op, err)
	}

	return sig, nil
}

func (c *RPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// normalizeSignature turns the signer reply into a 65 byte signature with V in {0, 1}
// and checks that it recovers to the expected public key.
// Compact 64 byte replies get their recovery id by trial recovery.
func normalizeSignature(digest common.Hash, raw []byte, expected *ecdsa.PublicKey) ([]byte, error) {
	switch len(raw) {
	case compactSigLength:
		for v := byte(0); v <= 1; v++ {
			candidate := append(bytes.Clone(raw), v)
			if recoversTo(digest, candidate, expected) {
				return candidate, nil
			}
		}
		return nil, errors.New("signature does not recover to the derived public key")

	case recoverableSigLen:
		sig := bytes.Clone(raw)
		if sig[64] >= legacyRecoveryBase {
			sig[64] -= legacyRecoveryBase
		}
		if sig[64] > 1 {
			return nil, errors.Errorf("invalid signature recovery id %d", raw[64])
		}
		if !recoversTo(digest, sig, expected) {
			return nil, errors.New("signature does not recover to the derived public key")
		}
		return sig, nil

	default:
		return nil, errors.Errorf("unexpected signature length %d", len(raw))
	}
}

func recoversTo(digest common.Hash, sig []byte, expected *ecdsa.PublicKey) bool {
	recovered, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return false
	}
	return recovered.X.Cmp(expected.X) == 0 && recovered.Y.Cmp(expected.Y) == 0
}

// classify maps transport failures to RemoteUnavailable and explicit refusals to RemoteRejected.
func classify(op string, err error) error {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= http.StatusBadRequest && httpErr.StatusCode < http.StatusInternalServerError &&
			httpErr.StatusCode != http.StatusTooManyRequests && httpErr.StatusCode != http.StatusRequestTimeout {
			return &walleterr.Error{Kind: walleterr.KindRemoteRejected, Op: op, Message: httpErr.Status, Err: err}
		}
		return walleterr.Wrap(walleterr.KindRemoteUnavailable, op, err)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		log.Debug().Str("op", op).Int("code", rpcErr.ErrorCode()).Err(err).Msg("Signer rejected request")
		return &walleterr.Error{Kind: walleterr.KindRemoteRejected, Op: op, Message: rpcErr.Error(), Err: err}
	}

	return walleterr.Wrap(walleterr.KindRemoteUnavailable, op, err)
}

func sessionKey(handle keydir.KeyHandle, derivationContext []byte) string {
	return handle.String() + "|" + hex.EncodeToString(derivationContext)
}
