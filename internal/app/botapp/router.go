package botapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	tginfra "github.com/ivankudzin/tgapp/reviewdesk/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/access"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/audit"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/detail"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/dialog"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/ui"
)

const (
	callbackPrefix = "rev"

	actionPage          = "page"
	actionDetails       = "det"
	actionAccept        = "acc"
	actionReject        = "rej"
	actionDetailAccept  = "dacc"
	actionDetailReject  = "drej"
	actionCancel        = "cancel"
	emptyReasonSentinel = "-"
)

type Backend interface {
	ListPendingUsers(ctx context.Context) ([]model.User, error)
}

type Submitter interface {
	Submit(ctx context.Context, intent model.ActionIntent, origin decisions.Origin) (string, error)
}

type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.DecisionAudit, error)
}

// chatState is the per-chat equivalent of a mounted page. awaiting names
// the controller whose dialog is waiting for a reason message.
type chatState struct {
	listing  *listing.Controller
	detail   *detail.Controller
	awaiting decisions.Scope
}

type Router struct {
	backend   Backend
	submitter Submitter
	audit     AuditLister
	policy    decisions.ReasonPolicy
	access    *access.Service
	sender    tginfra.Sender
	logger    *zap.Logger

	mu    sync.Mutex
	chats map[int64]*chatState
}

func NewRouter(backend Backend, submitter Submitter, audit AuditLister, policy decisions.ReasonPolicy, operatorIDs []int64, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		backend:   backend,
		submitter: submitter,
		audit:     audit,
		policy:    policy,
		access:    access.NewService(operatorIDs),
		logger:    logger,
		chats:     make(map[int64]*chatState),
	}
}

// SetSender attaches the outgoing side. It must be called before updates flow.
func (r *Router) SetSender(sender tginfra.Sender) {
	r.sender = sender
}

func (r *Router) origin(userID int64) decisions.Origin {
	return decisions.Origin{Actor: "tg:" + strconv.FormatInt(userID, 10), Source: enums.SourceBot}
}

// state returns the chat's controllers, creating them on first use. The
// router lock is held for the whole update so a chat's controllers are
// never driven concurrently.
func (r *Router) state(chatID, userID int64) *chatState {
	st, ok := r.chats[chatID]
	if !ok {
		origin := r.origin(userID)
		st = &chatState{
			listing: listing.NewController(r.backend, r.submitter, r.policy.Requires(decisions.ScopeListing), origin, r.logger),
			detail:  detail.NewController(r.backend, r.submitter, r.policy.Requires(decisions.ScopeDetail), origin, r.logger),
		}
		r.chats[chatID] = st
	}
	return st
}

func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = r.handleMessage(ctx, update.Message)
	default:
		return
	}
	if err != nil {
		r.logger.Error("handle telegram update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID
	if !r.access.Allowed(msg.From.ID) {
		return r.sendText(chatID, ui.StartMessage(false))
	}
	st := r.state(chatID, msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return r.sendMenu(chatID, ui.StartMessage(true))
		case "pending":
			return r.showListing(ctx, chatID, st, msg.CommandArguments())
		case "history":
			return r.showHistory(ctx, chatID)
		case "cancel":
			return r.cancel(chatID, st)
		default:
			return r.sendText(chatID, ui.StartMessage(true))
		}
	}

	text := strings.TrimSpace(msg.Text)
	if st.awaiting != "" {
		return r.captureReason(ctx, chatID, st, text)
	}

	switch text {
	case ui.MenuPending:
		return r.showListing(ctx, chatID, st, "")
	case ui.MenuHistory:
		return r.showHistory(ctx, chatID)
	default:
		return r.sendMenu(chatID, ui.StartMessage(true))
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	answer := ""
	defer func() { r.answerCallback(cb.ID, answer) }()

	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	if !r.access.Allowed(cb.From.ID) {
		answer = "Not allowed"
		return nil
	}
	st := r.state(chatID, cb.From.ID)

	action, arg, ok := parseCallback(cb.Data)
	if !ok {
		answer = "Unknown action"
		return nil
	}

	switch action {
	case actionPage:
		page, err := strconv.Atoi(arg)
		if err != nil {
			answer = "Unknown page"
			return nil
		}
		st.listing.SetPage(page)
		return r.sendListingPage(chatID, st)
	case actionDetails:
		return r.showDetails(ctx, chatID, st, arg)
	case actionAccept, actionReject:
		decision := enums.DecisionAccept
		if action == actionReject {
			decision = enums.DecisionReject
		}
		if !st.listing.Contains(arg) {
			if err := st.listing.Refresh(ctx); err != nil || !st.listing.Contains(arg) {
				return r.sendText(chatID, "User not found")
			}
		}
		r.closeDialogs(st)
		if err := st.listing.InitiateDecision(arg, decision); err != nil {
			answer = "Cannot start decision"
			return err
		}
		st.awaiting = decisions.ScopeListing
		return r.sendReasonPrompt(chatID, st.listing.Dialog())
	case actionDetailAccept, actionDetailReject:
		decision := enums.DecisionAccept
		if action == actionDetailReject {
			decision = enums.DecisionReject
		}
		if user, loaded := st.detail.User(); !loaded || user.ID != arg {
			if st.detail.Load(ctx, arg) != detail.StateLoaded {
				return r.sendText(chatID, "User not found")
			}
		}
		r.closeDialogs(st)
		if err := st.detail.InitiateDecision(decision); err != nil {
			answer = "Cannot start decision"
			return err
		}
		st.awaiting = decisions.ScopeDetail
		return r.sendReasonPrompt(chatID, st.detail.Dialog())
	case actionCancel:
		answer = "Cancelled"
		return r.cancel(chatID, st)
	default:
		answer = "Unknown action"
		return nil
	}
}

func (r *Router) showListing(ctx context.Context, chatID int64, st *chatState, query string) error {
	if err := st.listing.Refresh(ctx); err != nil {
		if sendErr := r.sendText(chatID, ui.FailureText(err)); sendErr != nil {
			return sendErr
		}
	}
	st.listing.SetFilter(strings.TrimSpace(query))
	st.listing.SetPage(1)
	return r.sendListingPage(chatID, st)
}

func (r *Router) sendListingPage(chatID int64, st *chatState) error {
	view := st.listing.Page()
	rows := make([][]tginfra.Action, 0, len(view.Items)+1)
	for _, user := range view.Items {
		rows = append(rows, []tginfra.Action{
			{Label: fmt.Sprintf("#%d Details", user.BusinessUserID), Payload: callbackData(actionDetails, user.ID)},
			{Label: "Accept", Payload: callbackData(actionAccept, user.ID)},
			{Label: "Reject", Payload: callbackData(actionReject, user.ID)},
		})
	}
	nav := make([]tginfra.Action, 0, 2)
	if view.HasPrev {
		nav = append(nav, tginfra.Action{Label: "Prev", Payload: callbackData(actionPage, strconv.Itoa(view.Number-1))})
	}
	if view.HasNext {
		nav = append(nav, tginfra.Action{Label: "Next", Payload: callbackData(actionPage, strconv.Itoa(view.Number+1))})
	}
	rows = append(rows, nav)

	return r.sendInline(chatID, ui.RenderListingPage(view, st.listing.Filter()), rows)
}

func (r *Router) showDetails(ctx context.Context, chatID int64, st *chatState, userID string) error {
	r.closeDialogs(st)
	if st.detail.Load(ctx, userID) != detail.StateLoaded {
		return r.sendText(chatID, "User not found")
	}
	user, _ := st.detail.User()

	if photo, err := decodeImage(user.Identity.ImageBase64); err != nil {
		r.logger.Warn("decode identity image", zap.String("user_id", user.ID), zap.Error(err))
	} else if len(photo) > 0 {
		msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: user.ID + ".jpg", Bytes: photo})
		msg.Caption = user.FullName()
		if err := r.send(msg); err != nil {
			r.logger.Warn("send identity photo", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return r.sendInline(chatID, ui.RenderUserCard(user), [][]tginfra.Action{{
		{Label: "Accept", Payload: callbackData(actionDetailAccept, user.ID)},
		{Label: "Reject", Payload: callbackData(actionDetailReject, user.ID)},
	}})
}

func (r *Router) showHistory(ctx context.Context, chatID int64) error {
	if r.audit == nil {
		return r.sendText(chatID, "Decision history is not configured.")
	}
	entries, err := r.audit.ListRecent(ctx, audit.DefaultRecentLimit)
	if err != nil {
		r.logger.Error("list decision history", zap.Error(err))
		return r.sendText(chatID, "Could not load decision history.")
	}
	return r.sendText(chatID, ui.RenderHistory(entries))
}

func (r *Router) captureReason(ctx context.Context, chatID int64, st *chatState, text string) error {
	reason := text
	if reason == emptyReasonSentinel {
		reason = ""
	}

	switch st.awaiting {
	case decisions.ScopeListing:
		intent, _ := st.listing.Dialog().Intent()
		message, err := st.listing.ConfirmDecision(ctx, reason)
		if errors.Is(err, dialog.ErrReasonRequired) {
			return r.sendReasonPrompt(chatID, st.listing.Dialog(), "Reason is required")
		}
		st.awaiting = ""
		if sendErr := r.sendDecisionResult(chatID, intent.Decision, message, err); sendErr != nil {
			return sendErr
		}
		if errors.Is(err, decisions.ErrInFlight) {
			return nil
		}
		return r.sendListingPage(chatID, st)
	case decisions.ScopeDetail:
		intent, _ := st.detail.Dialog().Intent()
		message, err := st.detail.ConfirmDecision(ctx, reason)
		if errors.Is(err, dialog.ErrReasonRequired) {
			return r.sendReasonPrompt(chatID, st.detail.Dialog(), "Reason is required")
		}
		if err != nil && st.detail.Dialog().IsOpen() {
			if sendErr := r.sendDecisionResult(chatID, intent.Decision, message, err); sendErr != nil {
				return sendErr
			}
			return r.sendReasonPrompt(chatID, st.detail.Dialog())
		}
		st.awaiting = ""
		return r.sendDecisionResult(chatID, intent.Decision, message, err)
	default:
		st.awaiting = ""
		return nil
	}
}

func (r *Router) sendDecisionResult(chatID int64, decision enums.Decision, message string, err error) error {
	switch {
	case errors.Is(err, decisions.ErrInFlight):
		return r.sendText(chatID, "A decision for this user is already being submitted.")
	case err != nil:
		return r.sendText(chatID, ui.FailureText(err))
	default:
		return r.sendText(chatID, ui.DecisionNotice(decision, message))
	}
}

func (r *Router) cancel(chatID int64, st *chatState) error {
	if st.awaiting == "" {
		return nil
	}
	r.closeDialogs(st)
	return r.sendText(chatID, "Cancelled.")
}

func (r *Router) closeDialogs(st *chatState) {
	st.listing.CancelDecision()
	st.detail.CancelDecision()
	st.awaiting = ""
}

func (r *Router) sendReasonPrompt(chatID int64, d *dialog.Dialog, notes ...string) error {
	text := ui.ReasonPrompt(d.Title(), d.ReasonRequired())
	if len(notes) > 0 {
		text = strings.Join(notes, "\n") + "\n" + text
	}
	return r.sendInline(chatID, text, [][]tginfra.Action{{
		{Label: "Cancel", Payload: callbackData(actionCancel, "")},
	}})
}

func (r *Router) sendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tginfra.MenuKeyboard(ui.MainMenu())
	return r.send(msg)
}

func (r *Router) sendText(chatID int64, text string) error {
	return r.send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendInline(chatID int64, text string, rows [][]tginfra.Action) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard, ok := tginfra.ActionKeyboard(rows); ok {
		msg.ReplyMarkup = keyboard
	}
	return r.send(msg)
}

func (r *Router) answerCallback(callbackID, text string) {
	if err := r.send(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.logger.Warn("answer callback", zap.Error(err))
	}
}

func (r *Router) send(msg tgbotapi.Chattable) error {
	if r.sender == nil {
		return nil
	}
	return r.sender.Send(msg)
}

func callbackData(action, arg string) string {
	return callbackPrefix + ":" + action + ":" + arg
}

func parseCallback(data string) (string, string, bool) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	if len(parts) != 3 || parts[0] != callbackPrefix || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func decodeImage(b64 string) ([]byte, error) {
	trimmed := strings.TrimSpace(b64)
	if trimmed == "" {
		return nil, nil
	}
	if idx := strings.Index(trimmed, ","); strings.HasPrefix(trimmed, "data:") && idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return base64.StdEncoding.DecodeString(trimmed)
}
