package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/audit"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
)

type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.DecisionAudit, error)
}

type HistoryHandler struct {
	audit   AuditLister
	enabled bool
	views   *views.Renderer
	logger  *zap.Logger
}

func NewHistoryHandler(audit AuditLister, enabled bool, renderer *views.Renderer, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{audit: audit, enabled: enabled, views: renderer, logger: logger}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page := views.HistoryPage{Disabled: !h.enabled}
	if h.enabled && h.audit != nil {
		entries, err := h.audit.ListRecent(r.Context(), audit.DefaultRecentLimit)
		if err != nil {
			h.logger.Error("list decision history", zap.Error(err))
		}
		page.Entries = entries
	}

	if err := h.views.Render(w, http.StatusOK, views.PageHistory, page); err != nil {
		h.logger.Error("render history page", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
