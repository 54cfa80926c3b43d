package main

import (
	"api/config"
	"api/crypto"
	"api/game"
	"api/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Debug)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	tokens := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenMaxAge)
	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen(clockwork.NewRealClock())

	lobby := game.NewLobby(&idGen, &tickerGen)
	started := make(chan struct{})
	go lobby.LobbyActor(started)
	<-started

	roomCfg := game.RoomConfig{
		MaxPlayers:        cfg.MaxPlayers,
		TurnSeconds:       cfg.TurnSeconds,
		VotingSeconds:     cfg.VotingSeconds,
		TransitionSeconds: cfg.TransitionSeconds,
		GraceSeconds:      cfg.GraceSeconds,
	}
	handler := game.NewGameHandler(lobby, tokens, roomCfg, game.NewWordBank())

	routes := engine.Group("/game")
	routes.GET("/create", handler.CreateRoom)
	routes.GET("/join/:roomid", handler.JoinRoom)
	routes.GET("/rejoin/:roomid", handler.RejoinRoom)

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
