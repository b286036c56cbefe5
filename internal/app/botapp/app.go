package botapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/app/stores"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	tginfra "github.com/ivankudzin/tgapp/reviewdesk/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
)

type App struct {
	cfg    config.Config
	logger *zap.Logger
	stores *stores.Stores
	client *tginfra.Client
	router *Router
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	httpClient, err := backendhttp.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	usersRepo := backendhttp.NewUsersRepo(httpClient)

	st := stores.Open(ctx, cfg, logger)
	var history AuditLister
	if st.AuditEnabled() {
		history = st.Audit
	}

	router := NewRouter(
		usersRepo,
		decisions.NewService(usersRepo, st.Locker, st.Audit, cfg.Review.LockTTL, logger),
		history,
		cfg.Review.ReasonPolicy,
		cfg.Bot.OperatorIDs,
		logger,
	)

	client, err := tginfra.NewClient(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, logger, router.HandleUpdate)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	router.SetSender(client)

	if len(cfg.Bot.OperatorIDs) == 0 {
		logger.Warn("BOT_OPERATOR_IDS is empty, every chat will be refused")
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		stores: st,
		client: client,
		router: router,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("review bot started",
		zap.Bool("dry_run", a.client.DryRun()),
		zap.Int("operators", a.router.access.Count()),
	)
	err := a.client.Start(ctx)
	a.logger.Info("review bot stopped")
	return err
}

func (a *App) Close() error {
	return a.stores.Close()
}
