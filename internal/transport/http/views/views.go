// Package views renders the console pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/listing"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	PageLogin    = "login"
	PageHome     = "home"
	PageDetails  = "details"
	PageNotFound = "not_found"
	PageHistory  = "history"
)

var pageTitles = map[string]string{
	PageLogin:    "Sign in",
	PageHome:     "Pending users",
	PageDetails:  "User details",
	PageNotFound: "User not found",
	PageHistory:  "History",
}

type LoginPage struct {
	Email      string
	NationalID string
	Message    string
}

// DialogView is the reason form. Action is where it posts.
type DialogView struct {
	Title      string
	UserID     string
	Decision   string
	Reason     string
	Required   bool
	Error      string
	Action     string
	CancelURL  string
	Query      string
	PageNumber int
}

type HomeRow struct {
	User      model.User
	AcceptURL string
	RejectURL string
}

type PageLink struct {
	Number  int
	URL     string
	Current bool
}

type HomePage struct {
	Query     string
	View      listing.PageView
	Rows      []HomeRow
	PageLinks []PageLink
	PrevURL   string
	NextURL   string
	Dialog    *DialogView
	Notice    string
	Error     string
}

type DetailsPage struct {
	User      model.User
	Fields    [][2]string
	ImageSrc  template.URL
	AcceptURL string
	RejectURL string
	Dialog    *DialogView
	Notice    string
	Error     string
}

type HistoryPage struct {
	Entries  []model.DecisionAudit
	Disabled bool
}

type layoutData struct {
	Title string
	Nav   bool
	Page  any
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageTitles))
	for page := range pageTitles {
		tpl, err := template.New("layout.html").ParseFS(templatesFS,
			"templates/layout.html",
			"templates/dialog.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		pages[page] = tpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	err := tpl.ExecuteTemplate(&buf, "layout", layoutData{
		Title: pageTitles[page],
		Nav:   page != PageLogin,
		Page:  data,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// SafeImageSrc marks an inline image data URI as trusted for the img src
// attribute. Anything else is dropped.
func SafeImageSrc(src string) template.URL {
	if !strings.HasPrefix(src, "data:image/") {
		return ""
	}
	return template.URL(src)
}
