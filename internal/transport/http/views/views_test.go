package views

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
)

func TestRenderAllPages(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	user := model.User{ID: "66a1", BusinessUserID: 1042, Identity: model.Identity{FirstName: "Mona", LastName: "Adel"}}
	pages := map[string]any{
		PageLogin:    LoginPage{Message: "Invalid password"},
		PageHome:     HomePage{View: listing.PageView{Items: []model.User{user}, Start: 1, End: 1, Total: 1, TotalPages: 1, Number: 1}, Rows: []HomeRow{{User: user}}},
		PageDetails:  DetailsPage{User: user, ImageSrc: SafeImageSrc("data:image/jpeg;base64,aGVsbG8=")},
		PageNotFound: nil,
		PageHistory:  HistoryPage{},
	}

	for page, data := range pages {
		rec := httptest.NewRecorder()
		if err := renderer.Render(rec, http.StatusOK, page, data); err != nil {
			t.Fatalf("render %s: %v", page, err)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("%s: unexpected content type %q", page, ct)
		}
	}
}

func TestDetailsImageIsNotSanitized(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	rec := httptest.NewRecorder()
	err = renderer.Render(rec, http.StatusOK, PageDetails, DetailsPage{ImageSrc: SafeImageSrc("data:image/jpeg;base64,aGVsbG8=")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `src="data:image/jpeg;base64,aGVsbG8="`) {
		t.Fatalf("expected data uri in body:\n%s", body)
	}
	if strings.Contains(body, "ZgotmplZ") {
		t.Fatal("image src was sanitized")
	}
}

func TestLoginPageHasNoNav(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := renderer.Render(rec, http.StatusOK, PageLogin, LoginPage{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(rec.Body.String(), "Sign out") {
		t.Fatal("login page must not render the header")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := renderer.Render(httptest.NewRecorder(), http.StatusOK, "nope", nil); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestSafeImageSrcOnlyTrustsImageDataURIs(t *testing.T) {
	if got := SafeImageSrc("data:image/jpeg;base64,aGVsbG8="); got != "data:image/jpeg;base64,aGVsbG8=" {
		t.Fatalf("unexpected src: %q", got)
	}
	for _, src := range []string{"", "javascript:alert(1)", "data:text/html;base64,PGI+"} {
		if got := SafeImageSrc(src); got != "" {
			t.Fatalf("expected %q to be dropped, got %q", src, got)
		}
	}
}
