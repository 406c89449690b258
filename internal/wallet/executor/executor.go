// Package executor drives a single value transfer from key derivation to confirmation.
// A run moves through
//
//	Idle → DerivingAddress → QuotingFee → AwaitingNonce → Signing → Submitting →
//	AwaitingConfirmation → Succeeded | Failed(reason)
//
// and holds the account's nonce lock from AwaitingNonce until it terminates.
package executor

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/go-remote-wallet/internal/metrics"
	"github/chapool/go-remote-wallet/internal/util"
	"github/chapool/go-remote-wallet/internal/wallet/address"
	"github/chapool/go-remote-wallet/internal/wallet/keydir"
	"github/chapool/go-remote-wallet/internal/wallet/nonce"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
	"github/chapool/go-remote-wallet/internal/wallet/signer"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

const (
	blockLatest = "latest"

	// bounds nonce bookkeeping that outlives the caller's context
	bookkeepingTimeout = 10 * time.Second
)

type Executor struct {
	keys    *keydir.Directory
	signer  signer.Service
	ledger  Ledger
	nonces  *nonce.Sequencer
	cfg     Config
	metrics *metrics.Service
}

func New(keys *keydir.Directory, signerService signer.Service, ledger Ledger, nonces *nonce.Sequencer, cfg Config, metricsService *metrics.Service) *Executor {
	return &Executor{
		keys:    keys,
		signer:  signerService,
		ledger:  ledger,
		nonces:  nonces,
		cfg:     cfg,
		metrics: metricsService,
	}
}

// run is the mutable state of one Execute call.
type run struct {
	id      string
	state   State
	started time.Time
	logger  zerolog.Logger
	result  *Result
}

func (r *run) transition(next State) {
	r.logger.Debug().
		Str("from", r.state.String()).
		Str("to", next.String()).
		Msg("Executor state transition")
	r.state = next
}

func (r *run) fail(reason Reason, err error) *Result {
	r.transition(StateFailed)
	r.result.Status = StatusFailed
	r.result.Reason = reason
	if err != nil {
		r.result.Message = err.Error()
	}

	r.logger.Warn().
		Str("reason", string(reason)).
		Err(err).
		Msg("Transaction run failed")

	return r.result
}

func (r *run) succeed() *Result {
	r.transition(StateSucceeded)
	r.result.Status = StatusSucceeded

	r.logger.Info().
		Str("hash", r.result.Hash).
		Msg("Transaction run succeeded")

	return r.result
}

// DeriveAccount resolves the configured key handle to its account address.
func (e *Executor) DeriveAccount(ctx context.Context) (common.Address, keydir.KeyHandle, error) {
	handle, err := e.keys.Current()
	if err != nil {
		return common.Address{}, keydir.KeyHandle{}, err
	}

	started := time.Now()
	material, err := e.signer.DerivePublicKey(ctx, handle, e.cfg.DerivationContext)
	e.metrics.ObserveSignerCall("derive_public_key", outcome(err), time.Since(started))
	if err != nil {
		return common.Address{}, handle, err
	}

	account, err := address.DeriveAddress(material)
	if err != nil {
		return common.Address{}, handle, err
	}

	return account, handle, nil
}

// Execute runs one transfer to a terminal state. It never returns a nil Result and never
// reports a hash the relay did not accept.
func (e *Executor) Execute(ctx context.Context, req TransactionRequest) *Result {
	r := &run{
		id:      uuid.NewString(),
		state:   StateIdle,
		started: time.Now(),
	}
	r.logger = util.LogFromContext(ctx).With().Str("component", "executor").Str("run_id", r.id).Logger()
	r.result = &Result{RunID: r.id}

	result := e.execute(ctx, r, req)
	e.metrics.ObserveTransaction(string(result.Status), string(result.Reason), time.Since(r.started))

	return result
}

func (e *Executor) execute(ctx context.Context, r *run, req TransactionRequest) *Result {
	chainID, gasLimit, err := e.requestDefaults(req)
	if err != nil {
		return r.fail(ReasonInvalidRequest, err)
	}

	r.transition(StateDerivingAddress)
	from, handle, err := e.DeriveAccount(ctx)
	if err != nil {
		return r.fail(signerReason(err), err)
	}
	r.result.From = from
	r.logger = r.logger.With().Str("account", from.Hex()).Logger()

	r.transition(StateQuotingFee)
	quote, err := e.ledger.QuoteSendRawTransaction(ctx)
	if err != nil {
		return r.fail(ReasonFeeQuoteUnavailable, err)
	}
	fees, err := e.resolveFees(ctx)
	if err != nil {
		return r.fail(ReasonFeeQuoteUnavailable, err)
	}

	r.transition(StateAwaitingNonce)
	release, err := e.nonces.Acquire(ctx, from)
	if err != nil {
		return r.fail(ReasonCanceled, err)
	}
	defer release()

	if reason, err := e.recheckPending(ctx, r, from); err != nil {
		return r.fail(reason, err)
	}

	txNonce, err := e.nonces.NextNonce(ctx, from, func(ctx context.Context) (uint64, error) {
		return e.ledger.GetTransactionCount(ctx, from, blockLatest)
	})
	if err != nil {
		return r.fail(relayReason(err), err)
	}
	r.result.Nonce = &txNonce
	e.checkDrift(ctx, r, from)

	r.transition(StateSigning)
	londonSigner := types.NewLondonSigner(chainID)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     txNonce,
		GasTipCap: fees.tipCap,
		GasFeeCap: fees.feeCap,
		Gas:       gasLimit,
		To:        &req.To,
		Value:     req.Value,
	})

	started := time.Now()
	sig, err := e.signer.SignDigest(ctx, handle, e.cfg.DerivationContext, londonSigner.Hash(tx))
	e.metrics.ObserveSignerCall("sign_digest", outcome(err), time.Since(started))
	if err != nil {
		return r.fail(signerReason(err), err)
	}

	signedTx, err := tx.WithSignature(londonSigner, sig)
	if err != nil {
		return r.fail(ReasonRemoteSignerRejected, errors.Wrap(err, "failed to apply signature"))
	}
	sender, err := types.Sender(londonSigner, signedTx)
	if err != nil || sender != from {
		return r.fail(ReasonRemoteSignerRejected, errors.Errorf("signature recovers to %s, expected %s", sender.Hex(), from.Hex()))
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return r.fail(ReasonRemoteSignerRejected, errors.Wrap(err, "failed to encode signed transaction"))
	}

	r.transition(StateSubmitting)
	hash, err := e.ledger.SendRawTransaction(ctx, raw, quote)
	if err != nil {
		switch walleterr.KindOf(err) {
		case walleterr.KindRemoteUnavailable:
			// the transaction may still land, remember it for the next run
			e.setPending(ctx, r, from, txNonce, signedTx.Hash())
			return r.fail(ReasonUnconfirmed, err)
		case walleterr.KindFeeQuoteUnavailable:
			return r.fail(ReasonFeeQuoteUnavailable, err)
		default:
			return r.fail(ReasonSubmissionRejected, err)
		}
	}
	if hash != signedTx.Hash() {
		r.logger.Warn().
			Str("relay_hash", hash.Hex()).
			Str("local_hash", signedTx.Hash().Hex()).
			Msg("Relay returned a different transaction hash")
	}
	r.result.Hash = hash.Hex()
	e.setPending(ctx, r, from, txNonce, hash)

	r.transition(StateAwaitingConfirmation)
	found, err := e.ledger.GetTransactionByHash(ctx, hash)
	if err != nil {
		return r.fail(ReasonUnconfirmed, err)
	}
	if found == nil {
		return r.fail(ReasonUnconfirmed, errors.Errorf("transaction %s not found", hash.Hex()))
	}

	e.confirm(ctx, r, from, found)

	return r.succeed()
}

func (e *Executor) requestDefaults(req TransactionRequest) (*big.Int, uint64, error) {
	if req.Value == nil || req.Value.Sign() < 0 {
		return nil, 0, errors.New("value must be a non-negative amount")
	}
	if req.To == (common.Address{}) {
		return nil, 0, errors.New("recipient must not be the zero address")
	}

	chainID := req.ChainID
	if chainID == nil {
		chainID = e.cfg.ChainID
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, 0, errors.New("chain id must be positive")
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = e.cfg.GasLimit
	}
	if gasLimit == 0 {
		return nil, 0, errors.New("gas limit must be positive")
	}

	return chainID, gasLimit, nil
}

// recheckPending looks up a submission an earlier run could not confirm, so its nonce is not
// reused while the transaction may still be on its way.
func (e *Executor) recheckPending(ctx context.Context, r *run, from common.Address) (Reason, error) {
	pending, err := e.nonces.Pending(ctx, from)
	if err != nil {
		return ReasonNonceStoreUnavailable, err
	}
	if pending == nil {
		return ReasonNone, nil
	}

	found, err := e.ledger.GetTransactionByHash(ctx, pending.Hash)
	if err != nil {
		return relayReason(err), err
	}

	if found == nil {
		r.logger.Warn().
			Str("pending_hash", pending.Hash.Hex()).
			Uint64("pending_nonce", pending.Nonce).
			Time("submitted_at", pending.SubmittedAt).
			Msg("Pending submission not found on ledger, its nonce will be reused")
		return ReasonNone, nil
	}

	e.confirm(ctx, r, from, found)

	return ReasonNone, nil
}

// detached returns a context for bookkeeping that must complete even when the caller went away
// after the broadcast.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

func (e *Executor) confirm(ctx context.Context, r *run, from common.Address, tx *relay.Transaction) {
	ctx, cancel := detached(ctx)
	defer cancel()

	if err := e.nonces.RecordConfirmed(ctx, from, tx.Nonce); err != nil {
		// the pending record stays, the next run confirms again
		r.logger.Error().Err(err).Uint64("nonce", tx.Nonce).Msg("Failed to record confirmed nonce")
		return
	}

	if err := e.nonces.ClearPending(ctx, from, tx.Hash); err != nil {
		r.logger.Error().Err(err).Str("hash", tx.Hash.Hex()).Msg("Failed to clear pending submission")
	}
}

func (e *Executor) setPending(ctx context.Context, r *run, from common.Address, n uint64, hash common.Hash) {
	ctx, cancel := detached(ctx)
	defer cancel()

	if err := e.nonces.SetPending(ctx, from, n, hash); err != nil {
		r.logger.Error().Err(err).Str("hash", hash.Hex()).Msg("Failed to store pending submission")
	}
}

func (e *Executor) checkDrift(ctx context.Context, r *run, from common.Address) {
	if !e.cfg.NonceDriftCheck {
		return
	}

	count, err := e.ledger.GetTransactionCount(ctx, from, blockLatest)
	if err != nil {
		r.logger.Debug().Err(err).Msg("Skipping nonce drift check")
		return
	}

	if _, err := e.nonces.CheckDrift(ctx, from, count); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to check nonce drift")
	}
}

func signerReason(err error) Reason {
	switch walleterr.KindOf(err) {
	case walleterr.KindConfig, walleterr.KindUninitialized:
		return ReasonConfigError
	case walleterr.KindMalformedKey:
		return ReasonMalformedKey
	case walleterr.KindRemoteRejected:
		return ReasonRemoteSignerRejected
	default:
		return ReasonRemoteSignerUnavailable
	}
}

func relayReason(err error) Reason {
	switch walleterr.KindOf(err) {
	case walleterr.KindFeeQuoteUnavailable:
		return ReasonFeeQuoteUnavailable
	case walleterr.KindUnknown:
		return ReasonNonceStoreUnavailable
	default:
		return ReasonRelayUnavailable
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return walleterr.KindOf(err).String()
}
