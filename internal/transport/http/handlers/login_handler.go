package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/session"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
)

type LoginHandler struct {
	backend  Backend
	throttle session.Throttle
	views    *views.Renderer
	logger   *zap.Logger
}

func NewLoginHandler(backend Backend, throttle session.Throttle, renderer *views.Renderer, logger *zap.Logger) *LoginHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginHandler{backend: backend, throttle: throttle, views: renderer, logger: logger}
}

func (h *LoginHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctrl := session.NewController(h.backend, h.throttle, h.logger)
	outcome := ctrl.Cooldown(r.Context(), clientKey(r))
	if outcome.Throttled {
		h.render(w, http.StatusTooManyRequests, views.LoginPage{Message: outcome.Message})
		return
	}
	h.render(w, http.StatusOK, views.LoginPage{})
}

func (h *LoginHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, views.LoginPage{Message: session.GenericFailureMessage})
		return
	}

	creds := backendhttp.Credentials{
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		NationalID: r.PostFormValue("national_id"),
	}

	ctrl := session.NewController(h.backend, h.throttle, h.logger)
	outcome := ctrl.Submit(r.Context(), creds, clientKey(r))
	if outcome.Authenticated {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	if outcome.Throttled {
		status = http.StatusTooManyRequests
	}
	h.render(w, status, views.LoginPage{
		Email:      creds.Email,
		NationalID: creds.NationalID,
		Message:    outcome.Message,
	})
}

func (h *LoginHandler) render(w http.ResponseWriter, status int, page views.LoginPage) {
	if err := h.views.Render(w, status, views.PageLogin, page); err != nil {
		h.logger.Error("render login page", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
