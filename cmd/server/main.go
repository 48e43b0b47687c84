package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/clock"
	"github.com/junexi0828/focusmate-sub001/internal/config"
	"github.com/junexi0828/focusmate-sub001/internal/database"
	"github.com/junexi0828/focusmate-sub001/internal/handler"
	"github.com/junexi0828/focusmate-sub001/internal/hub"
	"github.com/junexi0828/focusmate-sub001/internal/jobs"
	"github.com/junexi0828/focusmate-sub001/internal/middleware"
	"github.com/junexi0828/focusmate-sub001/internal/redis"
	"github.com/junexi0828/focusmate-sub001/internal/repository"
	"github.com/junexi0828/focusmate-sub001/internal/service"
	"github.com/junexi0828/focusmate-sub001/internal/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	roomRepo := repository.NewRoomRepository(db.DB)
	timerRepo := repository.NewTimerRepository(db.DB)
	participantRepo := repository.NewParticipantRepository(db.DB)
	presenceRepo := repository.NewPresenceRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	friendRepo := repository.NewFriendRepository(db.DB)

	roomHub := hub.New()
	userHub := hub.New()
	clk := clock.System()

	roomService := service.NewRoomService(db, roomRepo, timerRepo, participantRepo, roomHub, clk, cfg)
	presenceService := service.NewPresenceService(presenceRepo, friendRepo, userHub, clk)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient.Client)

	roomHandler := handler.NewRoomHandler(roomService)
	timerHandler := handler.NewTimerHandler(roomService)
	participantHandler := handler.NewParticipantHandler(roomService)
	presenceHandler := handler.NewPresenceHandler(presenceService)
	wsHandler := ws.NewHandler(roomService, presenceService, roomHub, authMiddleware, cfg.SinkDeliveryTimeout())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Mount("/rooms", roomHandler.Routes())
		r.Mount("/timer", timerHandler.Routes())
		r.Mount("/participants", participantHandler.Routes())
		r.Mount("/presence", presenceHandler.Routes())
	})

	// WebSocket endpoints authenticate via ?token=; the upgrade request
	// cannot carry an Authorization header from browsers
	r.Mount("/ws", wsHandler.Routes())

	sweeper := jobs.NewPresenceSweeper(presenceService, config.PresenceSweepInterval, cfg.StalePresenceThresholdMin)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
