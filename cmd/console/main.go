package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/app/consoleapp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/infra/logger"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Env: cfg.Env, Service: "reviewdesk-console"})
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := consoleapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create console app", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown console app", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("console server failed", zap.Error(err))
		}
	}
}
