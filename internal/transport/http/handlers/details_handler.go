package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/detail"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/dialog"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/ui"
)

type DetailsHandler struct {
	backend   Backend
	submitter Submitter
	policy    decisions.ReasonPolicy
	views     *views.Renderer
	logger    *zap.Logger
}

func NewDetailsHandler(backend Backend, submitter Submitter, policy decisions.ReasonPolicy, renderer *views.Renderer, logger *zap.Logger) *DetailsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailsHandler{backend: backend, submitter: submitter, policy: policy, views: renderer, logger: logger}
}

func (h *DetailsHandler) newController(r *http.Request) *detail.Controller {
	return detail.NewController(h.backend, h.submitter, h.policy.Requires(decisions.ScopeDetail), consoleOrigin(r, enums.SourceDetail), h.logger)
}

// Show loads the record; ?decision= opens the reason dialog.
func (h *DetailsHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctrl := h.newController(r)
	if ctrl.Load(r.Context(), chi.URLParam(r, "id")) != detail.StateLoaded {
		h.renderNotFound(w)
		return
	}

	if raw := r.URL.Query().Get("decision"); raw != "" {
		decision, ok := enums.ParseDecision(raw)
		if !ok {
			h.render(w, http.StatusBadRequest, ctrl, "", "Unknown decision")
			return
		}
		if err := ctrl.InitiateDecision(decision); err != nil {
			h.render(w, http.StatusBadRequest, ctrl, "", "Unknown decision")
			return
		}
	}

	h.render(w, http.StatusOK, ctrl, "", "")
}

// Confirm validates the reason locally before any update is sent. On success
// the page keeps showing the record as loaded.
func (h *DetailsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctrl := h.newController(r)
	if ctrl.Load(r.Context(), chi.URLParam(r, "id")) != detail.StateLoaded {
		h.renderNotFound(w)
		return
	}

	decision, ok := enums.ParseDecision(r.PostFormValue("decision"))
	if !ok || ctrl.InitiateDecision(decision) != nil {
		h.render(w, http.StatusBadRequest, ctrl, "", "Unknown decision")
		return
	}

	message, err := ctrl.ConfirmDecision(r.Context(), r.PostFormValue("reason"))
	switch {
	case errors.Is(err, dialog.ErrReasonRequired):
		h.render(w, http.StatusUnprocessableEntity, ctrl, "", reasonRequiredMessage)
	case errors.Is(err, decisions.ErrInFlight):
		h.render(w, http.StatusConflict, ctrl, "", "A decision for this user is already being submitted.")
	case err != nil:
		h.render(w, http.StatusOK, ctrl, "", ui.FailureText(err))
	default:
		h.render(w, http.StatusOK, ctrl, ui.DecisionNotice(decision, message), "")
	}
}

func (h *DetailsHandler) render(w http.ResponseWriter, status int, ctrl *detail.Controller, notice, errText string) {
	user, _ := ctrl.User()
	page := views.DetailsPage{
		User:      user,
		Fields:    ui.UserFields(user),
		ImageSrc:  views.SafeImageSrc(ctrl.ImageSrc()),
		AcceptURL: detailsDecideURL(user.ID, enums.DecisionAccept),
		RejectURL: detailsDecideURL(user.ID, enums.DecisionReject),
		Notice:    notice,
		Error:     errText,
	}

	d := ctrl.Dialog()
	if intent, open := d.Intent(); open {
		dialogErr := ""
		if errText != "" {
			dialogErr = errText
			page.Error = ""
		}
		page.Dialog = &views.DialogView{
			Title:     d.Title(),
			UserID:    intent.TargetUserID,
			Decision:  intent.Decision.Verb(),
			Reason:    intent.Reason,
			Required:  d.ReasonRequired(),
			Error:     dialogErr,
			Action:    detailsURL(user.ID) + "/decision",
			CancelURL: detailsURL(user.ID),
		}
	}

	if err := h.views.Render(w, status, views.PageDetails, page); err != nil {
		h.logger.Error("render details page", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (h *DetailsHandler) renderNotFound(w http.ResponseWriter) {
	if err := h.views.Render(w, http.StatusNotFound, views.PageNotFound, nil); err != nil {
		h.logger.Error("render not found page", zap.Error(err))
		http.Error(w, "User not found", http.StatusNotFound)
	}
}
