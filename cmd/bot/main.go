package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/app/botapp"
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

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Env: cfg.Env, Service: "reviewdesk-bot"})
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create bot app", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close bot app", zap.Error(err))
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Error("bot app failed", zap.Error(err))
	}
}
