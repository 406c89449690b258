package common

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
)

func GetGreetRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/greet", getGreetHandler)
}

func getGreetHandler(c echo.Context) error {
	return c.String(http.StatusOK, fmt.Sprintf("Hello, %s!", c.QueryParam("name")))
}
