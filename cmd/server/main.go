// Package main is the entry point for the ratechart server.
//
// Startup sequence:
//  1. Load configuration (.env, then environment)
//  2. Initialize logging (console plus rotating file)
//  3. Wire dependencies (cache database, services, jobs)
//  4. Start the HTTP server and the scheduler
//  5. Load the dataset in the background
//  6. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/di"
	"github.com/aristath/ratechart/internal/server"
	"github.com/aristath/ratechart/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		File:   cfg.LogFile(),
		MaxAge: cfg.LogMaxAgeDays,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("source", cfg.DataSource).
		Msg("Starting ratechart")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The chart is served once the first load succeeds. A failed load is
	// logged and reported on the event stream; the page stays empty.
	go func() {
		if err := container.ChartService.Load(ctx); err != nil {
			log.Error().Err(err).Msg("Initial dataset load failed")
			return
		}
		log.Info().Msg("Initial dataset loaded")
	}()

	if jobs.MaintainFrameCache != nil {
		go func() {
			if err := container.Scheduler.RunNow(jobs.MaintainFrameCache); err != nil {
				log.Warn().Err(err).Msg("Startup frame cache maintenance failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
