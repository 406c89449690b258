package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/httperrors"
	"github/chapool/go-remote-wallet/internal/util"
	wallettypes "github/chapool/go-remote-wallet/internal/wallet"
	"github/chapool/go-remote-wallet/internal/wallet/executor"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

func PostTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Wallet.POST("/transactions", postTransactionHandler(s))
}

// postTransactionHandler executes one transfer. Run failures are transaction outcomes and are
// returned with 200, except an unconfirmed submission which is returned with 409 so callers
// know the nonce is still in flight.
func postTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var payload PostTransactionPayload
		if c.Request().ContentLength != 0 {
			if err := c.Bind(&payload); err != nil {
				log.Debug().Err(err).Msg("Failed to bind transaction payload")
				return httperrors.ErrBadRequestInvalidBody
			}
		}

		req, err := toTransferRequest(payload)
		if err != nil {
			return err
		}

		result, err := s.Wallet.ExecuteTransaction(ctx, req)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to start transaction")
			if walleterr.KindOf(err) == walleterr.KindConfig {
				return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.TypeBadRequest, "Invalid transfer request.", err.Error())
			}
			return httperrors.FromWalletError(err)
		}

		if result.Reason == executor.ReasonUnconfirmed {
			return c.JSON(http.StatusConflict, result)
		}

		return c.JSON(http.StatusOK, result)
	}
}

func toTransferRequest(payload PostTransactionPayload) (*wallettypes.TransferRequest, error) {
	if payload.To == "" && payload.Value == "" {
		return nil, nil //nolint:nilnil // nil request selects the configured defaults
	}

	req := &wallettypes.TransferRequest{To: payload.To}
	if payload.Value != "" {
		value, ok := wallettypes.ParseWei(payload.Value)
		if !ok {
			return nil, httperrors.ErrBadRequestInvalidValue
		}
		req.Value = value
	}

	return req, nil
}
