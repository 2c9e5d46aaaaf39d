package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example/chess-engine-api/app"
	"example/chess-engine-api/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg.Logs)

	svc := app.NewEngineService(cfg, logger)
	if err := svc.Start(); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Engine.Path).Msg("failed to start engine")
	}

	router := app.NewRouter(&app.Handlers{Engine: svc, DefaultDepth: cfg.Engine.Depth})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	svc.Shutdown()
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger
}
