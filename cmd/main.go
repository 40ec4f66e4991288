package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ceronops/jobcal/internal/app"
	"github.com/ceronops/jobcal/internal/config"
	"github.com/ceronops/jobcal/internal/db"
	"github.com/ceronops/jobcal/internal/logger"
	"github.com/ceronops/jobcal/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Initialize(cfg.LogLevel)

	database, err := db.New(cfg.DBOptions())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	opts, err := app.OptionsFromConfig(cfg, database)
	if err != nil {
		logger.Fatalf("Failed to build application: %v", err)
	}
	a := app.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Sync.AutoSyncEnabled {
		autoSync, err := services.NewAutoSync(a.Sync, cfg.Sync.AutoSyncCron)
		if err != nil {
			logger.Fatalf("Failed to schedule auto-sync: %v", err)
		}
		wg.Add(1)
		go services.LaunchAutoSync(ctx, &wg, autoSync)
	}

	go func() {
		logger.InfoWithFields("Server starting", map[string]interface{}{
			"port":     cfg.Port,
			"timezone": cfg.Timezone,
			"driver":   cfg.Database.Driver,
		})
		if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	cancel()
	if err := a.Fiber.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	wg.Wait()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server exited")
}
