package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examtracker/internal/config"
	"examtracker/internal/database"
	"examtracker/internal/handlers"
	"examtracker/internal/logger"
	"examtracker/internal/repository"
	"examtracker/internal/security"
	"examtracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
	flag.Parse()

	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.MustNew("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.MustNew(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve timezone")
	}
	now := func() time.Time { return time.Now().In(loc) }

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database_type", cfg.DatabaseType).Msg("Failed to open database")
	}
	defer db.Close()

	log.Info().Str("database_type", cfg.DatabaseType).Msg("Database connection established")

	repo := repository.NewExamRepository(db).WithClock(now)
	examService := service.NewExamService(repo, log, now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := examService.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize exam storage")
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	router := handlers.NewRouter(handlers.NewExamHandler(examService, log), limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	shutdown(srv, log)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	log.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	log.Info().Msg("Server stopped")
}
