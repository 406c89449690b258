package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/httperrors"
	"github/chapool/go-remote-wallet/internal/util"
)

func GetAddressRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Wallet.GET("/address", getAddressHandler(s))
}

func getAddressHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		account, err := s.Wallet.GetAddress(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to get wallet address")
			return httperrors.FromWalletError(err)
		}

		return c.JSON(http.StatusOK, newAddressResponse(account))
	}
}
