package executor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-remote-wallet/internal/wallet/relay"
)

type State int

const (
	StateIdle State = iota
	StateDerivingAddress
	StateQuotingFee
	StateAwaitingNonce
	StateSigning
	StateSubmitting
	StateAwaitingConfirmation
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDerivingAddress:
		return "DerivingAddress"
	case StateQuotingFee:
		return "QuotingFee"
	case StateAwaitingNonce:
		return "AwaitingNonce"
	case StateSigning:
		return "Signing"
	case StateSubmitting:
		return "Submitting"
	case StateAwaitingConfirmation:
		return "AwaitingConfirmation"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Reason tells why a run ended in StateFailed.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonFeeQuoteUnavailable     Reason = "FEE_QUOTE_UNAVAILABLE"
	ReasonRemoteSignerUnavailable Reason = "REMOTE_SIGNER_UNAVAILABLE"
	ReasonRemoteSignerRejected    Reason = "REMOTE_SIGNER_REJECTED"
	ReasonMalformedKey            Reason = "MALFORMED_KEY"
	ReasonSubmissionRejected      Reason = "SUBMISSION_REJECTED"
	ReasonUnconfirmed             Reason = "UNCONFIRMED"
	ReasonConfigError             Reason = "CONFIG_ERROR"
	ReasonRelayUnavailable        Reason = "RELAY_UNAVAILABLE"
	ReasonNonceStoreUnavailable   Reason = "NONCE_STORE_UNAVAILABLE"
	ReasonInvalidRequest          Reason = "INVALID_REQUEST"
	ReasonCanceled                Reason = "CANCELED"
)

// Retryable reports whether repeating the same request may succeed without changes.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonFeeQuoteUnavailable,
		ReasonRemoteSignerUnavailable,
		ReasonUnconfirmed,
		ReasonRelayUnavailable,
		ReasonNonceStoreUnavailable,
		ReasonCanceled:
		return true
	default:
		return false
	}
}

// TransactionRequest is the value transfer to execute. ChainID and GasLimit default to the
// executor's configuration when unset.
type TransactionRequest struct {
	To       common.Address
	Value    *big.Int
	ChainID  *big.Int
	GasLimit uint64
}

// Result is the terminal outcome of a run. Hash is only set once the relay accepted the
// broadcast; Nonce is only set once a nonce was assigned.
type Result struct {
	RunID   string         `json:"runId"`
	Status  Status         `json:"status"`
	Reason  Reason         `json:"reason,omitempty"`
	Message string         `json:"message,omitempty"`
	Hash    string         `json:"hash,omitempty"`
	From    common.Address `json:"from"`
	Nonce   *uint64        `json:"nonce,omitempty"`
}

func (r *Result) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Ledger is the subset of the relay client the executor needs.
type Ledger interface {
	GetTransactionCount(ctx context.Context, addr common.Address, block string) (uint64, error)
	MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error)
	LatestBaseFee(ctx context.Context) (*big.Int, error)
	QuoteSendRawTransaction(ctx context.Context) (relay.FeeQuote, error)
	SendRawTransaction(ctx context.Context, raw []byte, paid relay.FeeQuote) (common.Hash, error)
	GetTransactionByHash(ctx context.Context, hash common.Hash) (*relay.Transaction, error)
}

var _ Ledger = (*relay.Client)(nil)

// Config holds the transaction defaults of an executor. Nil fee caps are estimated through the
// ledger for every run.
type Config struct {
	DerivationContext []byte
	ChainID           *big.Int
	GasLimit          uint64
	MaxFeePerGas      *big.Int
	MaxPriorityFee    *big.Int
	NonceDriftCheck   bool
}
