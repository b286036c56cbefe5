package consoleapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/app/stores"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	stores     *stores.Stores
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	client, err := backendhttp.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	usersRepo := backendhttp.NewUsersRepo(client)

	renderer, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}

	st := stores.Open(ctx, cfg, log)

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		Backend:      usersRepo,
		Decisions:    decisions.NewService(usersRepo, st.Locker, st.Audit, cfg.Review.LockTTL, log),
		Audit:        st.Audit,
		AuditEnabled: st.AuditEnabled(),
		Throttle:     st.Throttle,
		Views:        renderer,
		Logger:       log,
		Config:       cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		stores:     st,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("console server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("backend", a.cfg.Backend.BaseURL),
		zap.String("reason_policy", string(a.cfg.Review.ReasonPolicy)),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if err := a.stores.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
