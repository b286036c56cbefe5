package model

import (
	"time"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
)

type DecisionAudit struct {
	ID        int64
	Actor     string
	Source    enums.Source
	UserID    string
	Decision  enums.Decision
	Reason    string
	Outcome   enums.AuditOutcome
	Message   string
	CreatedAt time.Time
}
