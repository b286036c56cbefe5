package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/session"
)

func TestRenderListingPage(t *testing.T) {
	view := listing.PageView{
		Items: []model.User{
			{BusinessUserID: 1008, CreatedAt: "2024-03-05T10:11:12Z", Identity: model.Identity{FirstName: "Mona", LastName: "Adel", Status: "Pending"}},
		},
		Number:     2,
		TotalPages: 2,
		Start:      8,
		End:        8,
		Total:      8,
	}

	text := RenderListingPage(view, "")
	for _, want := range []string{"Showing 8-8 of 8 results", "Page 2 of 2", "8. #1008 Mona Adel · Pending · submitted 2024-03-05"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestRenderEmptyListing(t *testing.T) {
	text := RenderListingPage(listing.PageView{}, "zzz")
	if !strings.Contains(text, "Showing 0-0 of 0 results") || strings.Contains(text, "Page ") {
		t.Fatalf("unexpected empty listing text:\n%s", text)
	}
	if !strings.Contains(text, `matching "zzz"`) {
		t.Fatalf("expected filter in header:\n%s", text)
	}
}

func TestRenderUserCardOrderAndFallbacks(t *testing.T) {
	text := RenderUserCard(model.User{BusinessUserID: 7, Identity: model.Identity{FirstName: "Omar"}})
	lines := strings.Split(text, "\n")
	if len(lines) != 10 {
		t.Fatalf("unexpected field count %d:\n%s", len(lines), text)
	}
	if lines[0] != "Business User ID: 7" || lines[1] != "First Name: Omar" || lines[2] != "Last Name: -" || lines[9] != "Date of Submission: -" {
		t.Fatalf("unexpected card:\n%s", text)
	}
}

func TestRenderHistory(t *testing.T) {
	if RenderHistory(nil) != "No decisions recorded yet." {
		t.Fatal("unexpected empty history text")
	}

	text := RenderHistory([]model.DecisionAudit{{
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Decision:  enums.DecisionReject,
		UserID:    "66a1",
		Actor:     "ops",
		Source:    enums.SourceBot,
		Outcome:   enums.AuditOutcomeOK,
		Reason:    "blurry",
	}})
	if !strings.Contains(text, "2024-03-05 10:00 reject 66a1 by ops via bot: OK (blurry)") {
		t.Fatalf("unexpected history:\n%s", text)
	}
}

func TestFailureText(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "backend message",
			err:  &backendhttp.RequestError{Op: "update_status", StatusCode: 400, Message: "User already processed", Err: errors.New("User already processed")},
			want: "User already processed",
		},
		{
			name: "transport",
			err:  &backendhttp.RequestError{Op: "update_status", Transport: true, Err: errors.New("connection refused")},
			want: session.GenericFailureMessage,
		},
		{name: "plain", err: errors.New("boom"), want: session.GenericFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FailureText(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecisionNotice(t *testing.T) {
	if got := DecisionNotice(enums.DecisionAccept, "Status updated"); got != "User accepted. Status updated" {
		t.Fatalf("unexpected notice: %q", got)
	}
	if got := DecisionNotice(enums.DecisionReject, ""); got != "User rejected." {
		t.Fatalf("unexpected notice: %q", got)
	}
}
