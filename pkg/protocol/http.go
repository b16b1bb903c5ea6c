package protocol

import (
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const httpControllerGroup = `group:"http.controller"`

type HttpRouter = *echo.Echo

// HttpResolvable lets a controller attach its own routes once the router
// exists. The http service resolves every controller of the group at startup.
type HttpResolvable interface {
	Resolve(HttpRouter) error
}

// AsHttpController annotates a controller constructor into the
// http.controller value group.
func AsHttpController(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(HttpResolvable)),
		fx.ResultTags(httpControllerGroup),
	)
}
