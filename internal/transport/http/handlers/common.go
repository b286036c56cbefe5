package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
)

// Backend is the subset of the verification backend the console pages use.
type Backend interface {
	SignIn(ctx context.Context, creds backendhttp.Credentials) (string, error)
	ListPendingUsers(ctx context.Context) ([]model.User, error)
}

type Submitter interface {
	Submit(ctx context.Context, intent model.ActionIntent, origin decisions.Origin) (string, error)
}

const reasonRequiredMessage = "Reason is required"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clientKey identifies the operator's client. RealIP has already rewritten
// RemoteAddr when the console runs behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func consoleOrigin(r *http.Request, source enums.Source) decisions.Origin {
	return decisions.Origin{Actor: "console:" + clientKey(r), Source: source}
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

func homeURL(query string, page int) string {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if len(values) == 0 {
		return "/home"
	}
	return "/home?" + values.Encode()
}

func homeDecideURL(userID string, decision enums.Decision, query string, page int) string {
	values := url.Values{}
	values.Set("user", userID)
	values.Set("decision", decision.Verb())
	if query != "" {
		values.Set("q", query)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	return "/home/decide?" + values.Encode()
}

func detailsURL(userID string) string {
	return "/details/" + url.PathEscape(userID)
}

func detailsDecideURL(userID string, decision enums.Decision) string {
	return detailsURL(userID) + "?decision=" + decision.Verb()
}
