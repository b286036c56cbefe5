package decisions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/infra/metrics"
)

const defaultLockTTL = 30 * time.Second

var (
	ErrInFlight      = errors.New("a decision for this user is already in flight")
	ErrInvalidIntent = errors.New("invalid decision intent")
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, userID string, decision enums.Decision, reason string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry model.DecisionAudit) error
}

// Origin identifies who submitted a decision and from which surface.
type Origin struct {
	Actor  string
	Source enums.Source
}

type Service struct {
	updater StatusUpdater
	locker  Locker
	audit   AuditRecorder
	lockTTL time.Duration
	logger  *zap.Logger
}

func NewService(updater StatusUpdater, locker Locker, audit AuditRecorder, lockTTL time.Duration, logger *zap.Logger) *Service {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		updater: updater,
		locker:  locker,
		audit:   audit,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// Submit sends one status update for intent while holding the per-user lock.
// It returns the backend message on success.
func (s *Service) Submit(ctx context.Context, intent model.ActionIntent, origin Origin) (string, error) {
	if strings.TrimSpace(intent.TargetUserID) == "" || !intent.Decision.Valid() {
		return "", ErrInvalidIntent
	}
	if s.updater == nil {
		return "", fmt.Errorf("status updater is nil")
	}

	log := s.logger.With(
		zap.String("user_id", intent.TargetUserID),
		zap.String("decision", string(intent.Decision)),
		zap.String("source", string(origin.Source)),
	)

	token, err := s.locker.Acquire(ctx, intent.TargetUserID, s.lockTTL)
	switch {
	case err != nil:
		log.Warn("decision lock unavailable, continuing without it", zap.Error(err))
	case token == "":
		metrics.ObserveDecision(string(intent.Decision), "in_flight")
		return "", ErrInFlight
	default:
		defer s.release(ctx, intent.TargetUserID, token, log)
	}

	message, err := s.updater.UpdateStatus(ctx, intent.TargetUserID, intent.Decision, intent.Reason)

	entry := model.DecisionAudit{
		Actor:     origin.Actor,
		Source:    origin.Source,
		UserID:    intent.TargetUserID,
		Decision:  intent.Decision,
		Reason:    intent.Reason,
		Outcome:   enums.AuditOutcomeOK,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Outcome = enums.AuditOutcomeFailed
		entry.Message = err.Error()
	}
	s.record(ctx, entry, log)

	if err != nil {
		metrics.ObserveDecision(string(intent.Decision), "error")
		log.Error("update status failed", zap.Error(err))
		return "", fmt.Errorf("update status: %w", err)
	}

	metrics.ObserveDecision(string(intent.Decision), "ok")
	log.Info("status updated", zap.String("message", message))
	return message, nil
}

func (s *Service) record(ctx context.Context, entry model.DecisionAudit, log *zap.Logger) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Warn("save decision audit", zap.Error(err))
	}
}

func (s *Service) release(ctx context.Context, key, token string, log *zap.Logger) {
	if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
		log.Warn("release decision lock", zap.Error(err))
	}
}
