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

	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/jaminalder/tic-tac-toe-ai/internal/config"
	"github.com/jaminalder/tic-tac-toe-ai/internal/logging"
	"github.com/jaminalder/tic-tac-toe-ai/internal/web"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	difficulty := flag.Float64("difficulty", -1, "Default AI difficulty 0-1 (overrides config)")
	thinkDelay := flag.Duration("think", -1, "AI thinking delay (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *difficulty >= 0 {
		cfg.Difficulty = *difficulty
	}
	if *thinkDelay >= 0 {
		cfg.ThinkDelay = *thinkDelay
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	svc := app.NewService(
		app.WithThinkDelay(cfg.ThinkDelay),
		app.WithOpeningBias(cfg.OpeningBias),
		app.WithLogger(logger),
	)
	defer svc.Close()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.NewServer(svc,
			web.WithDifficulty(cfg.Difficulty),
			web.WithHeartbeat(cfg.Heartbeat),
			web.WithLogger(logger),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.Addr).Float64("difficulty", cfg.Difficulty).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// close streams first so Shutdown does not wait on them
	svc.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
