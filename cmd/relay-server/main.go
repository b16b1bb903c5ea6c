package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/romashorodok/sketching-platform/internal/room"
	"github.com/romashorodok/sketching-platform/internal/session"
	"github.com/romashorodok/sketching-platform/pkg/protocol"
	"github.com/romashorodok/sketching-platform/pkg/service"
)

func main() {
	_ = godotenv.Load()

	fx.New(
		fx.Provide(
			room.NewNotifier,
			room.NewRegistry,

			protocol.AsHttpController(session.NewSessionController),
		),

		service.SettingsModule,
		service.LoggerModule,
		service.HttpModule,
	).Run()
}
