// Package stores opens the optional redis and postgres backends shared by
// the console and the bot. A missing store degrades its feature to the
// in-process or disabled form.
package stores

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	pgrepo "github.com/ivankudzin/tgapp/reviewdesk/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/reviewdesk/internal/repo/redis"
	auditsvc "github.com/ivankudzin/tgapp/reviewdesk/internal/services/audit"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	ratesvc "github.com/ivankudzin/tgapp/reviewdesk/internal/services/rate"
)

type Stores struct {
	DB       *sql.DB
	Redis    *goredis.Client
	Locker   decisions.Locker
	Audit    *auditsvc.Service
	Throttle *ratesvc.Limiter
}

func Open(ctx context.Context, cfg config.Config, log *zap.Logger) *Stores {
	if log == nil {
		log = zap.NewNop()
	}
	out := &Stores{}

	if db, err := pgrepo.Open(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, decision history disabled", zap.Error(err))
	} else if db != nil {
		auditRepo := pgrepo.NewAuditRepo(db)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			log.Warn("audit schema init failed, decision history disabled", zap.Error(err))
			_ = db.Close()
		} else {
			out.DB = db
			out.Audit = auditsvc.NewService(auditRepo)
		}
	}

	out.Redis = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if out.Redis != nil {
		out.Locker = redrepo.NewLockRepo(out.Redis)
		out.Throttle = ratesvc.NewLimiter(redrepo.NewRateRepo(out.Redis), cfg.SignIn.AttemptsPerMinute)
	} else {
		log.Info("redis not configured, using in-process decision lock without sign-in throttle")
	}

	return out
}

func (s *Stores) AuditEnabled() bool {
	return s != nil && s.DB != nil
}

func (s *Stores) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
