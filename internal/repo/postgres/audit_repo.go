package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
)

const createAuditTableSQL = `
CREATE TABLE IF NOT EXISTS decision_audit (
	id BIGSERIAL PRIMARY KEY,
	actor TEXT NOT NULL,
	source TEXT NOT NULL,
	user_id TEXT NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, createAuditTableSQL); err != nil {
		return fmt.Errorf("create decision_audit table: %w", err)
	}
	return nil
}

func (r *AuditRepo) Save(ctx context.Context, entry model.DecisionAudit) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO decision_audit (actor, source, user_id, decision, reason, outcome, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.Actor, string(entry.Source), entry.UserID, string(entry.Decision), entry.Reason, string(entry.Outcome), entry.Message, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision audit: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.DecisionAudit, error) {
	if r.db == nil {
		return []model.DecisionAudit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor, source, user_id, decision, reason, outcome, message, created_at
		FROM decision_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent decision audit: %w", err)
	}
	defer rows.Close()

	result := make([]model.DecisionAudit, 0, limit)
	for rows.Next() {
		var entry model.DecisionAudit
		var source, decision, outcome string
		if err := rows.Scan(&entry.ID, &entry.Actor, &source, &entry.UserID, &decision, &entry.Reason, &outcome, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision audit row: %w", err)
		}
		entry.Source = enums.Source(source)
		entry.Decision = enums.Decision(decision)
		entry.Outcome = enums.AuditOutcome(outcome)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision audit rows: %w", err)
	}

	return result, nil
}
