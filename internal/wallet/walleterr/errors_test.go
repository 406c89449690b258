package walleterr_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

func TestErrorClassification(t *testing.T) {
	cause := context.DeadlineExceeded
	err := errors.Wrap(walleterr.Wrap(walleterr.KindRemoteUnavailable, "signer.DerivePublicKey", cause), "failed to derive address")

	assert.True(t, errors.Is(err, walleterr.ErrRemoteUnavailable))
	assert.False(t, errors.Is(err, walleterr.ErrRemoteRejected))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, walleterr.KindRemoteUnavailable, walleterr.KindOf(err))
	assert.True(t, walleterr.IsRetryable(err))
	assert.Contains(t, err.Error(), "[REMOTE_UNAVAILABLE] signer.DerivePublicKey")
}

func TestErrorMessage(t *testing.T) {
	err := walleterr.Newf(walleterr.KindMalformedKey, "address.DeriveAddress", "unsupported public key length %d", 12)
	assert.Equal(t, "[MALFORMED_KEY] address.DeriveAddress: unsupported public key length 12", err.Error())
	assert.ErrorIs(t, err, walleterr.ErrMalformedKey)
	assert.False(t, walleterr.IsRetryable(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, walleterr.Wrap(walleterr.KindConfig, "op", nil))
	assert.Equal(t, walleterr.KindUnknown, walleterr.KindOf(errors.New("plain")))
}
