package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/dialog"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/ui"
)

type HomeHandler struct {
	backend   Backend
	submitter Submitter
	policy    decisions.ReasonPolicy
	views     *views.Renderer
	logger    *zap.Logger
}

func NewHomeHandler(backend Backend, submitter Submitter, policy decisions.ReasonPolicy, renderer *views.Renderer, logger *zap.Logger) *HomeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeHandler{backend: backend, submitter: submitter, policy: policy, views: renderer, logger: logger}
}

func (h *HomeHandler) newController(r *http.Request) *listing.Controller {
	return listing.NewController(h.backend, h.submitter, h.policy.Requires(decisions.ScopeListing), consoleOrigin(r, enums.SourceListing), h.logger)
}

// List mounts the listing page: fetch, filter, then page.
func (h *HomeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ctrl := h.newController(r)
	_ = ctrl.Refresh(r.Context())
	ctrl.SetFilter(query.Get("q"))
	ctrl.SetPage(parsePage(query.Get("page")))

	h.render(w, http.StatusOK, ctrl, "", "")
}

// Decide renders the listing with the reason dialog open. Only users in the
// freshly fetched list can be targeted.
func (h *HomeHandler) Decide(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ctrl := h.newController(r)
	refreshErr := ctrl.Refresh(r.Context())
	ctrl.SetFilter(query.Get("q"))
	ctrl.SetPage(parsePage(query.Get("page")))

	if status, errText := h.openDialog(ctrl, refreshErr, query.Get("user"), query.Get("decision")); errText != "" {
		h.render(w, status, ctrl, "", errText)
		return
	}

	h.render(w, http.StatusOK, ctrl, "", "")
}

// Confirm checks the target against a fresh fetch, then submits the dialog.
// The controller refreshes again after the update, so a normal confirm costs
// one update and two fetches. An unknown target costs no update.
func (h *HomeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctrl := h.newController(r)
	filter := r.PostFormValue("q")
	page := parsePage(r.PostFormValue("page"))
	refreshErr := ctrl.Refresh(r.Context())

	status, errText := h.openDialog(ctrl, refreshErr, r.PostFormValue("user"), r.PostFormValue("decision"))
	if errText != "" {
		ctrl.SetFilter(filter)
		ctrl.SetPage(page)
		h.render(w, status, ctrl, "", errText)
		return
	}
	intent, _ := ctrl.Dialog().Intent()

	message, err := ctrl.ConfirmDecision(r.Context(), r.PostFormValue("reason"))
	status = http.StatusOK
	notice := ""
	switch {
	case errors.Is(err, dialog.ErrReasonRequired):
		status = http.StatusUnprocessableEntity
		errText = reasonRequiredMessage
	case errors.Is(err, decisions.ErrInFlight):
		status = http.StatusConflict
		errText = "A decision for this user is already being submitted."
	case err != nil:
		errText = ui.FailureText(err)
	default:
		notice = ui.DecisionNotice(intent.Decision, message)
	}

	ctrl.SetFilter(filter)
	ctrl.SetPage(page)
	h.render(w, status, ctrl, notice, errText)
}

func (h *HomeHandler) openDialog(ctrl *listing.Controller, refreshErr error, userID, rawDecision string) (int, string) {
	decision, ok := enums.ParseDecision(rawDecision)
	if !ok {
		return http.StatusBadRequest, "Unknown decision"
	}
	if refreshErr != nil {
		return http.StatusBadGateway, ui.FailureText(refreshErr)
	}
	if !ctrl.Contains(userID) || ctrl.InitiateDecision(userID, decision) != nil {
		return http.StatusBadRequest, "Unknown user"
	}
	return http.StatusOK, ""
}

func (h *HomeHandler) render(w http.ResponseWriter, status int, ctrl *listing.Controller, notice, errText string) {
	view := ctrl.Page()
	filter := ctrl.Filter()

	rows := make([]views.HomeRow, 0, len(view.Items))
	for _, user := range view.Items {
		rows = append(rows, views.HomeRow{
			User:      user,
			AcceptURL: homeDecideURL(user.ID, enums.DecisionAccept, filter, view.Number),
			RejectURL: homeDecideURL(user.ID, enums.DecisionReject, filter, view.Number),
		})
	}

	links := make([]views.PageLink, 0, view.TotalPages)
	for _, n := range view.Pages() {
		links = append(links, views.PageLink{Number: n, URL: homeURL(filter, n), Current: n == view.Number})
	}

	page := views.HomePage{
		Query:     filter,
		View:      view,
		Rows:      rows,
		PageLinks: links,
		PrevURL:   homeURL(filter, view.Number-1),
		NextURL:   homeURL(filter, view.Number+1),
		Notice:    notice,
		Error:     errText,
	}

	d := ctrl.Dialog()
	if intent, open := d.Intent(); open {
		dialogErr := ""
		if errText == reasonRequiredMessage {
			dialogErr = errText
			page.Error = ""
		}
		page.Dialog = &views.DialogView{
			Title:      d.Title(),
			UserID:     intent.TargetUserID,
			Decision:   intent.Decision.Verb(),
			Reason:     intent.Reason,
			Required:   d.ReasonRequired(),
			Error:      dialogErr,
			Action:     "/home/decisions",
			CancelURL:  homeURL(filter, view.Number),
			Query:      filter,
			PageNumber: view.Number,
		}
	}

	if err := h.views.Render(w, status, views.PageHome, page); err != nil {
		h.logger.Error("render home page", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
