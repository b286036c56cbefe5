package audit

import (
	"context"
	"time"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
)

const DefaultRecentLimit = 50

type Repo interface {
	Save(context.Context, model.DecisionAudit) error
	ListRecent(context.Context, int) ([]model.DecisionAudit, error)
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, entry model.DecisionAudit) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return s.repo.Save(ctx, entry)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.DecisionAudit, error) {
	if s == nil || s.repo == nil {
		return []model.DecisionAudit{}, nil
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
