package ui

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/session"
)

const (
	MenuPending = "Pending users"
	MenuHistory = "History"
)

func MainMenu() [][]string {
	return [][]string{
		{MenuPending},
		{MenuHistory},
	}
}

func StartMessage(allowed bool) string {
	if !allowed {
		return "You do not have access to this bot."
	}
	return "Verification review. Use \"Pending users\" or /pending <query> to start."
}

func RenderListingPage(view listing.PageView, filter string) string {
	lines := make([]string, 0, len(view.Items)+3)
	header := "Pending users"
	if strings.TrimSpace(filter) != "" {
		header = fmt.Sprintf("Pending users matching %q", filter)
	}
	lines = append(lines, header, view.RangeText())
	if view.TotalPages > 0 {
		lines = append(lines, fmt.Sprintf("Page %d of %d", view.Number, view.TotalPages))
	}

	for i, user := range view.Items {
		lines = append(lines, fmt.Sprintf("%d. #%d %s · %s · submitted %s",
			view.Start+i,
			user.BusinessUserID,
			defaultText(user.FullName(), "-"),
			defaultText(user.Identity.Status, "-"),
			user.SubmittedOn(),
		))
	}
	return strings.Join(lines, "\n")
}

// UserFields is the detail field table, in display order.
func UserFields(user model.User) [][2]string {
	return [][2]string{
		{"Business User ID", fmt.Sprintf("%d", user.BusinessUserID)},
		{"First Name", defaultText(user.Identity.FirstName, "-")},
		{"Last Name", defaultText(user.Identity.LastName, "-")},
		{"Email", defaultText(user.Email, "-")},
		{"National ID", defaultText(user.Identity.NationalIDNumber, "-")},
		{"Status", defaultText(user.Identity.Status, "-")},
		{"Gender", defaultText(user.Identity.Gender, "-")},
		{"Birthdate", defaultText(user.Identity.Birthdate, "-")},
		{"Issuer ID", defaultText(user.Identity.IssuerID, "-")},
		{"Date of Submission", user.SubmittedOn()},
	}
}

func RenderUserCard(user model.User) string {
	fields := UserFields(user)
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, field[0]+": "+field[1])
	}
	return strings.Join(lines, "\n")
}

func ReasonPrompt(title string, required bool) string {
	if required {
		return title + "\nSend the reason as a message."
	}
	return title + "\nSend the reason as a message, or \"-\" to leave it empty."
}

func RenderHistory(entries []model.DecisionAudit) string {
	if len(entries) == 0 {
		return "No decisions recorded yet."
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Recent decisions")
	for _, entry := range entries {
		line := fmt.Sprintf("%s %s %s by %s via %s: %s",
			entry.CreatedAt.UTC().Format("2006-01-02 15:04"),
			entry.Decision.Verb(),
			entry.UserID,
			defaultText(entry.Actor, "unknown"),
			strings.ToLower(string(entry.Source)),
			entry.Outcome,
		)
		if strings.TrimSpace(entry.Reason) != "" {
			line += " (" + entry.Reason + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FailureText is the operator-facing text for a failed decision: the
// backend's own message when it sent one, the generic text otherwise.
func FailureText(err error) string {
	if msg := backendhttp.BackendMessage(err); msg != "" && !backendhttp.IsTransport(err) {
		return msg
	}
	return session.GenericFailureMessage
}

func DecisionNotice(decision enums.Decision, message string) string {
	return strings.TrimSpace("User " + strings.ToLower(decision.Status()) + ". " + message)
}

func defaultText(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
