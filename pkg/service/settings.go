package service

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Settings holds the process configuration, populated from the environment.
type Settings struct {
	HttpPort string `envconfig:"HTTP_PORT" default:"8080"`

	// RoomIdleTimeout is how long a room may stay empty before it is
	// destroyed.
	RoomIdleTimeout time.Duration `envconfig:"ROOM_IDLE_TIMEOUT" default:"10m"`

	// GameCountdown is the delay between reaching the player minimum and the
	// game-started broadcast.
	GameCountdown time.Duration `envconfig:"GAME_COUNTDOWN" default:"10s"`
	GameRounds    int           `envconfig:"GAME_ROUNDS" default:"3"`
	MinPlayers    int           `envconfig:"MIN_PLAYERS" default:"1"`

	BatchMaxSize int           `envconfig:"BATCH_MAX_SIZE" default:"30"`
	BatchMaxWait time.Duration `envconfig:"BATCH_MAX_WAIT" default:"1s"`
}

func NewSettings() (*Settings, error) {
	var settings Settings
	if err := envconfig.Process("", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

var SettingsModule = fx.Module("settings", fx.Provide(
	NewSettings,
))
