package wallet_test

import (
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/handlers/wallet"
	"github/chapool/go-remote-wallet/internal/api/httperrors"
	"github/chapool/go-remote-wallet/internal/test"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
)

func TestGetAddress(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/wallet/address", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response wallet.AddressResponse
		test.ParseResponseAndValidate(t, res, &response)

		assert.Equal(t, env.Account.Hex(), response.Address)
		assert.Equal(t, "test_key_1", response.KeyName)
		assert.Equal(t, "secp256k1", response.Curve)
		assert.Equal(t, int64(11155111), response.ChainID)
	})
}

func TestGetAddressUnknownKey(t *testing.T) {
	cfg := test.DefaultTestConfig(t)
	cfg.DevSigner.KeyNames = []string{"key_1"}

	test.WithTestServerConfigurable(t, cfg, func(s *api.Server, _ *test.Env) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/wallet/address", nil, nil)
		require.Equal(t, http.StatusBadGateway, res.Result().StatusCode)

		var response httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, "REMOTE_REJECTED", response.Type)
	})
}

func TestGetBalance(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/wallet/balance", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response wallet.BalanceResponse
		test.ParseResponseAndValidate(t, res, &response)

		assert.Equal(t, env.Account.Hex(), response.Address)
		assert.Equal(t, test.InitialBalance.String(), response.Wei)
	})
}

func TestGetBalanceRelayFailure(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		env.Chain.Fail("eth_getBalance", errors.New("upstream timeout"))

		res := test.PerformRequest(t, s, "GET", "/api/v1/wallet/balance", nil, nil)
		require.Equal(t, http.StatusBadGateway, res.Result().StatusCode)

		var response httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, http.StatusBadGateway, response.Code)
		assert.Contains(t, response.Detail, "upstream timeout")
	})
}

func TestPostTransactionDefaults(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/wallet/transactions", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var result executor.Result
		test.ParseResponseAndValidate(t, res, &result)

		require.Equal(t, executor.StatusSucceeded, result.Status, result.Message)
		assert.Equal(t, env.Account, result.From)
		require.NotNil(t, result.Nonce)
		assert.Equal(t, uint64(0), *result.Nonce)

		tx, from, ok := env.Chain.Transaction(common.HexToHash(result.Hash))
		require.True(t, ok)
		assert.Equal(t, env.Account, from)
		assert.Equal(t, test.DefaultRecipient, *tx.To())
		assert.Equal(t, big.NewInt(1000), tx.Value())
	})
}

func TestPostTransactionExplicit(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		to := common.HexToAddress("0x6813Eb9362372EEF6200f3b1dbC3f819671cBA69")

		for i := range 2 {
			res := test.PerformRequest(t, s, "POST", "/api/v1/wallet/transactions", wallet.PostTransactionPayload{
				To:    to.Hex(),
				Value: "42",
			}, nil)
			require.Equal(t, http.StatusOK, res.Result().StatusCode)

			var result executor.Result
			test.ParseResponseAndValidate(t, res, &result)
			require.True(t, result.Succeeded(), result.Message)
			require.NotNil(t, result.Nonce)
			assert.Equal(t, uint64(i), *result.Nonce)

			tx, _, ok := env.Chain.Transaction(common.HexToHash(result.Hash))
			require.True(t, ok)
			assert.Equal(t, to, *tx.To())
			assert.Equal(t, big.NewInt(42), tx.Value())
		}

		assert.Equal(t, uint64(2), env.Chain.Nonce(env.Account))
	})
}

func TestPostTransactionInvalidPayload(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		tests := []struct {
			name    string
			payload wallet.PostTransactionPayload
		}{
			{"bad recipient", wallet.PostTransactionPayload{To: "0x1234"}},
			{"negative value", wallet.PostTransactionPayload{Value: "-1"}},
			{"non decimal value", wallet.PostTransactionPayload{Value: "0x10"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res := test.PerformRequest(t, s, "POST", "/api/v1/wallet/transactions", tt.payload, nil)
				require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)

				var response httperrors.HTTPError
				test.ParseResponseAndValidate(t, res, &response)
				assert.Equal(t, httperrors.TypeBadRequest, response.Type)
			})
		}
	})
}

func TestPostTransactionFailedOutcome(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		env.Chain.Fail("eth_maxPriorityFeePerGas", errors.New("method not available"))

		res := test.PerformRequest(t, s, "POST", "/api/v1/wallet/transactions", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var result executor.Result
		test.ParseResponseAndValidate(t, res, &result)
		assert.Equal(t, executor.StatusFailed, result.Status)
		assert.Equal(t, executor.ReasonFeeQuoteUnavailable, result.Reason)
		assert.Empty(t, result.Hash)
		assert.Equal(t, 0, env.Chain.Calls("eth_sendRawTransaction"))
	})
}

func TestPostTransactionUnconfirmed(t *testing.T) {
	test.WithTestServerEnv(t, func(s *api.Server, env *test.Env) {
		env.Chain.DropSubmissions = true

		res := test.PerformRequest(t, s, "POST", "/api/v1/wallet/transactions", nil, nil)
		require.Equal(t, http.StatusConflict, res.Result().StatusCode)

		var result executor.Result
		test.ParseResponseAndValidate(t, res, &result)
		assert.Equal(t, executor.ReasonUnconfirmed, result.Reason)
		assert.NotEmpty(t, result.Hash)
	})
}
