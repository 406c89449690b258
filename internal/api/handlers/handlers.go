package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/handlers/common"
	"github/chapool/go-remote-wallet/internal/api/handlers/wallet"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetMetricsRoute(s),
		common.GetGreetRoute(s),
		wallet.GetAddressRoute(s),
		wallet.GetBalanceRoute(s),
		wallet.PostTransactionRoute(s),
	}
}
