package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Port the HTTP/websocket server listens on
	Port string `envconfig:"IMPOSTOR_PORT" default:"3001"`

	// Origins allowed to open websocket connections
	AllowedOrigins []string `envconfig:"IMPOSTOR_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	// Console logging with debug level instead of JSON
	Debug bool `envconfig:"IMPOSTOR_DEBUG" default:"false"`

	// Signing key for rejoin session tokens
	JWTKey string `envconfig:"IMPOSTOR_JWT_KEY" required:"true"`

	// How long a rejoin token stays valid
	TokenMaxAge time.Duration `envconfig:"IMPOSTOR_TOKEN_MAX_AGE" default:"24h"`

	// Seconds a player has to submit an answer on their turn
	TurnSeconds int `envconfig:"IMPOSTOR_TURN_SECONDS" default:"60"`

	// Seconds the shared voting window stays open
	VotingSeconds int `envconfig:"IMPOSTOR_VOTING_SECONDS" default:"60"`

	// Seconds before the next set starts automatically
	TransitionSeconds int `envconfig:"IMPOSTOR_TRANSITION_SECONDS" default:"60"`

	// Seconds a disconnected player keeps their seat before forfeiting it
	GraceSeconds int `envconfig:"IMPOSTOR_GRACE_SECONDS" default:"60"`

	// Hard cap on players per room
	MaxPlayers int `envconfig:"IMPOSTOR_MAX_PLAYERS" default:"10"`
}

func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
