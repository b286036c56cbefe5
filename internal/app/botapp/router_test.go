package botapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
)

const (
	operatorID = int64(501)
	chatID     = int64(9001)
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (s *fakeSender) Send(msg tgbotapi.Chattable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, msg := range s.sent {
		if m, ok := msg.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (s *fakeSender) count(match func(tgbotapi.Chattable) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, msg := range s.sent {
		if match(msg) {
			n++
		}
	}
	return n
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

type fakeBackend struct {
	mu      sync.Mutex
	users   []model.User
	updates []string
}

func (f *fakeBackend) ListPendingUsers(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users, nil
}

func (f *fakeBackend) UpdateStatus(_ context.Context, userID string, decision enums.Decision, reason string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fmt.Sprintf("%s:%s:%s", userID, decision.Status(), reason))
	return "Status updated", nil
}

type fakeAudit struct {
	entries []model.DecisionAudit
}

func (f *fakeAudit) ListRecent(context.Context, int) ([]model.DecisionAudit, error) {
	return f.entries, nil
}

func makeUsers(n int) []model.User {
	users := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, model.User{
			ID:             fmt.Sprintf("u%d", i),
			BusinessUserID: int64(1000 + i),
			Identity: model.Identity{
				FirstName:   fmt.Sprintf("First%d", i),
				LastName:    fmt.Sprintf("Last%d", i),
				Status:      enums.StatusPending,
				ImageBase64: "aGVsbG8=",
			},
		})
	}
	return users
}

func newTestRouter(backend *fakeBackend, audit AuditLister) (*Router, *fakeSender) {
	svc := decisions.NewService(backend, decisions.NewMemoryLocker(), nil, time.Second, zap.NewNop())
	router := NewRouter(backend, svc, audit, decisions.PolicyLegacy, []int64{operatorID}, zap.NewNop())
	sender := &fakeSender{}
	router.SetSender(sender)
	return router, sender
}

func textUpdate(fromID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: fromID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if idx := strings.Index(text, " "); idx > 0 {
			length = idx
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callbackUpdate(fromID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: fromID},
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func containsText(texts []string, want string) bool {
	for _, text := range texts {
		if strings.Contains(text, want) {
			return true
		}
	}
	return false
}

func isCallbackAnswer(msg tgbotapi.Chattable) bool {
	_, ok := msg.(tgbotapi.CallbackConfig)
	return ok
}

func TestRouterRefusesNonOperators(t *testing.T) {
	backend := &fakeBackend{users: makeUsers(2)}
	router, sender := newTestRouter(backend, nil)

	router.HandleUpdate(context.Background(), textUpdate(42, "/pending"))
	if !containsText(sender.texts(), "You do not have access to this bot.") {
		t.Fatalf("expected refusal, got %v", sender.texts())
	}

	sender.reset()
	router.HandleUpdate(context.Background(), callbackUpdate(42, "rev:acc:u1"))
	if len(backend.updates) != 0 {
		t.Fatalf("non-operator must not trigger updates: %v", backend.updates)
	}
	if sender.count(isCallbackAnswer) != 1 {
		t.Fatal("callback must still be answered")
	}
}

func TestRouterStartSendsMenu(t *testing.T) {
	router, sender := newTestRouter(&fakeBackend{}, nil)

	router.HandleUpdate(context.Background(), textUpdate(operatorID, "/start"))

	menus := sender.count(func(msg tgbotapi.Chattable) bool {
		m, ok := msg.(tgbotapi.MessageConfig)
		if !ok {
			return false
		}
		_, isReply := m.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
		return isReply
	})
	if menus != 1 {
		t.Fatalf("expected one menu message, got %d", menus)
	}
}

func TestRouterPendingFiltersAndPages(t *testing.T) {
	router, sender := newTestRouter(&fakeBackend{users: makeUsers(12)}, nil)

	router.HandleUpdate(context.Background(), textUpdate(operatorID, "/pending first1"))
	if !containsText(sender.texts(), "Showing 1-4 of 4 results") {
		t.Fatalf("expected filtered listing, got %v", sender.texts())
	}

	sender.reset()
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "Pending users"))
	if !containsText(sender.texts(), "Showing 1-7 of 12 results") {
		t.Fatalf("expected first page, got %v", sender.texts())
	}

	sender.reset()
	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:page:2"))
	if !containsText(sender.texts(), "Showing 8-12 of 12 results") {
		t.Fatalf("expected second page, got %v", sender.texts())
	}
}

func TestRouterListingDecisionWithEmptyReason(t *testing.T) {
	backend := &fakeBackend{users: makeUsers(3)}
	router, sender := newTestRouter(backend, nil)

	router.HandleUpdate(context.Background(), textUpdate(operatorID, "/pending"))
	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:acc:u2"))
	if !containsText(sender.texts(), "Accept User") {
		t.Fatalf("expected reason prompt, got %v", sender.texts())
	}

	sender.reset()
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "-"))

	if len(backend.updates) != 1 || backend.updates[0] != "u2:Accepted:" {
		t.Fatalf("unexpected updates: %v", backend.updates)
	}
	texts := sender.texts()
	if !containsText(texts, "User accepted. Status updated") || !containsText(texts, "Showing 1-3 of 3 results") {
		t.Fatalf("expected notice and refreshed listing, got %v", texts)
	}

	sender.reset()
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "another message"))
	if len(backend.updates) != 1 {
		t.Fatal("dialog must be closed after confirm")
	}
}

func TestRouterListingDecisionUnknownUser(t *testing.T) {
	backend := &fakeBackend{users: makeUsers(2)}
	router, sender := newTestRouter(backend, nil)

	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:rej:gone"))
	if !containsText(sender.texts(), "User not found") {
		t.Fatalf("expected not found, got %v", sender.texts())
	}

	sender.reset()
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "spam"))
	if len(backend.updates) != 0 {
		t.Fatalf("unknown user must not be updated, got %v", backend.updates)
	}
	if containsText(sender.texts(), "Reject User") {
		t.Fatalf("no dialog should be open, got %v", sender.texts())
	}
}

func TestRouterDetailRequiresReason(t *testing.T) {
	backend := &fakeBackend{users: makeUsers(2)}
	router, sender := newTestRouter(backend, nil)

	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:det:u1"))
	photos := sender.count(func(msg tgbotapi.Chattable) bool {
		_, ok := msg.(tgbotapi.PhotoConfig)
		return ok
	})
	if photos != 1 {
		t.Fatalf("expected identity photo, got %d", photos)
	}
	if !containsText(sender.texts(), "Issuer ID: -") {
		t.Fatalf("expected user card, got %v", sender.texts())
	}

	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:drej:u1"))
	sender.reset()
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "-"))
	if len(backend.updates) != 0 {
		t.Fatalf("empty reason must not reach the backend: %v", backend.updates)
	}
	if !containsText(sender.texts(), "Reason is required") {
		t.Fatalf("expected validation prompt, got %v", sender.texts())
	}

	router.HandleUpdate(context.Background(), textUpdate(operatorID, "blurry photo"))
	if len(backend.updates) != 1 || backend.updates[0] != "u1:Rejected:blurry photo" {
		t.Fatalf("unexpected updates: %v", backend.updates)
	}
}

func TestRouterDetailsNotFound(t *testing.T) {
	router, sender := newTestRouter(&fakeBackend{users: makeUsers(1)}, nil)

	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:det:missing"))
	if !containsText(sender.texts(), "User not found") {
		t.Fatalf("expected not found, got %v", sender.texts())
	}
}

func TestRouterCancelClosesDialog(t *testing.T) {
	backend := &fakeBackend{users: makeUsers(1)}
	router, sender := newTestRouter(backend, nil)

	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:rej:u1"))
	router.HandleUpdate(context.Background(), callbackUpdate(operatorID, "rev:cancel:"))
	if !containsText(sender.texts(), "Cancelled.") {
		t.Fatalf("expected cancel confirmation, got %v", sender.texts())
	}

	router.HandleUpdate(context.Background(), textUpdate(operatorID, "late reason"))
	if len(backend.updates) != 0 {
		t.Fatalf("cancelled dialog must not submit: %v", backend.updates)
	}
}

func TestRouterHistory(t *testing.T) {
	router, sender := newTestRouter(&fakeBackend{}, nil)
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "History"))
	if !containsText(sender.texts(), "Decision history is not configured.") {
		t.Fatalf("expected disabled history, got %v", sender.texts())
	}

	audit := &fakeAudit{entries: []model.DecisionAudit{{
		Actor:     "tg:501",
		Source:    enums.SourceBot,
		UserID:    "u1",
		Decision:  enums.DecisionReject,
		Reason:    "blurry",
		Outcome:   enums.AuditOutcomeOK,
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}}}
	router, sender = newTestRouter(&fakeBackend{}, audit)
	router.HandleUpdate(context.Background(), textUpdate(operatorID, "/history"))
	if !containsText(sender.texts(), "reject u1 by tg:501 via bot") {
		t.Fatalf("expected history line, got %v", sender.texts())
	}
}

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data       string
		wantAction string
		wantArg    string
		wantOK     bool
	}{
		{data: "rev:det:abc", wantAction: "det", wantArg: "abc", wantOK: true},
		{data: "rev:cancel:", wantAction: "cancel", wantArg: "", wantOK: true},
		{data: "mod:approve:1", wantOK: false},
		{data: "rev::x", wantOK: false},
		{data: "rev", wantOK: false},
	}
	for _, tc := range cases {
		action, arg, ok := parseCallback(tc.data)
		if ok != tc.wantOK || action != tc.wantAction || arg != tc.wantArg {
			t.Fatalf("parseCallback(%q) = %q, %q, %v", tc.data, action, arg, ok)
		}
	}
}

func TestDecodeImage(t *testing.T) {
	for _, raw := range []string{"aGVsbG8=", "data:image/jpeg;base64,aGVsbG8="} {
		got, err := decodeImage(raw)
		if err != nil || string(got) != "hello" {
			t.Fatalf("decodeImage(%q) = %q, %v", raw, got, err)
		}
	}
	if got, err := decodeImage(""); err != nil || got != nil {
		t.Fatalf("empty image must decode to nil, got %q %v", got, err)
	}
	if _, err := decodeImage("!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
