package service

import (
	"fmt"
	"log/slog"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
)

type httpServer_Params struct {
	fx.In

	Controllers []protocol.HttpResolvable `group:"http.controller"`
	Logger      *slog.Logger
	Settings    *Settings
}

func httpErrorHandler(e *echo.Echo, logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("request", fmt.Sprintf("%+v", c.Request())))
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func httpServer(params httpServer_Params) {
	router := echo.New()
	router.HTTPErrorHandler = httpErrorHandler(router, params.Logger)

	for _, controller := range params.Controllers {
		controller.Resolve(router)
	}

	router.Logger.Fatal(router.Start(fmt.Sprintf(":%s", params.Settings.HttpPort)))
}

var HttpModule = fx.Module("http", fx.Invoke(httpServer))
