// Package walleterr holds the failure taxonomy shared by the remote wallet components.
// Every failure the wallet surfaces is an *Error carrying a Kind, so callers can tell
// retryable remote outages from explicit refusals and from local configuration problems.
package walleterr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindUninitialized
	KindRemoteUnavailable
	KindRemoteRejected
	KindMalformedKey
	KindFeeQuoteUnavailable
	KindSubmissionRejected
	KindUnconfirmed
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "CONFIG"
	case KindUninitialized:
		return "UNINITIALIZED"
	case KindRemoteUnavailable:
		return "REMOTE_UNAVAILABLE"
	case KindRemoteRejected:
		return "REMOTE_REJECTED"
	case KindMalformedKey:
		return "MALFORMED_KEY"
	case KindFeeQuoteUnavailable:
		return "FEE_QUOTE_UNAVAILABLE"
	case KindSubmissionRejected:
		return "SUBMISSION_REJECTED"
	case KindUnconfirmed:
		return "UNCONFIRMED"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified wallet failure.
type Error struct {
	Kind    Kind
	Op      string // component operation, e.g. "signer.SignDigest"
	Message string
	Err     error
}

// Sentinels for errors.Is comparisons. They match any *Error of the same Kind.
var (
	ErrConfig              = &Error{Kind: KindConfig}
	ErrUninitialized       = &Error{Kind: KindUninitialized}
	ErrRemoteUnavailable   = &Error{Kind: KindRemoteUnavailable}
	ErrRemoteRejected      = &Error{Kind: KindRemoteRejected}
	ErrMalformedKey        = &Error{Kind: KindMalformedKey}
	ErrFeeQuoteUnavailable = &Error{Kind: KindFeeQuoteUnavailable}
	ErrSubmissionRejected  = &Error{Kind: KindSubmissionRejected}
	ErrUnconfirmed         = &Error{Kind: KindUnconfirmed}
)

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", e.Kind))
	if e.Op != "" {
		sb.WriteString(" " + e.Op)
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// New creates a classified error without a cause.
func New(kind Kind, op string, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the failure is transient from the caller's point of view.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRemoteUnavailable, KindUnconfirmed, KindFeeQuoteUnavailable:
		return true
	default:
		return false
	}
}
