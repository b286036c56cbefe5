// Package listing drives the pending-users page: fetch, filter, paginate and
// the inline accept/reject flow.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/dialog"
)

const PageSize = 7

type UserLister interface {
	ListPendingUsers(ctx context.Context) ([]model.User, error)
}

type Submitter interface {
	Submit(ctx context.Context, intent model.ActionIntent, origin decisions.Origin) (string, error)
}

type Controller struct {
	lister    UserLister
	submitter Submitter
	origin    decisions.Origin
	logger    *zap.Logger

	users  []model.User
	filter string
	page   int
	dialog *dialog.Dialog
}

func NewController(lister UserLister, submitter Submitter, reasonRequired bool, origin decisions.Origin, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		lister:    lister,
		submitter: submitter,
		origin:    origin,
		logger:    logger,
		users:     []model.User{},
		page:      1,
		dialog:    dialog.New(reasonRequired),
	}
}

// Refresh replaces the user set. On failure the set becomes empty and the
// error is logged and returned.
func (c *Controller) Refresh(ctx context.Context) error {
	users, err := c.lister.ListPendingUsers(ctx)
	if err != nil {
		c.logger.Error("fetch pending users", zap.Error(err))
		c.users = []model.User{}
		c.clampPage()
		return fmt.Errorf("fetch pending users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	c.users = users
	c.clampPage()
	return nil
}

func (c *Controller) Users() []model.User {
	return c.users
}

// Contains reports whether userID is in the last fetched set, ignoring the filter.
func (c *Controller) Contains(userID string) bool {
	for _, user := range c.users {
		if user.ID == userID {
			return true
		}
	}
	return false
}

func (c *Controller) SetFilter(text string) {
	c.filter = text
	c.clampPage()
}

func (c *Controller) Filter() string {
	return c.filter
}

// Filtered returns users whose business id and names contain the filter,
// ignoring case.
func (c *Controller) Filtered() []model.User {
	needle := strings.ToLower(c.filter)
	if needle == "" {
		return c.users
	}
	result := make([]model.User, 0, len(c.users))
	for _, user := range c.users {
		if strings.Contains(strings.ToLower(user.SearchText()), needle) {
			result = append(result, user)
		}
	}
	return result
}

func (c *Controller) TotalPages() int {
	return totalPages(len(c.Filtered()))
}

// SetPage clamps n into [1, max(TotalPages, 1)].
func (c *Controller) SetPage(n int) {
	c.page = n
	c.clampPage()
}

func (c *Controller) CurrentPage() int {
	return c.page
}

type PageView struct {
	Items      []model.User
	Number     int
	TotalPages int
	Start      int
	End        int
	Total      int
	HasPrev    bool
	HasNext    bool
}

// Pages lists the page numbers to render as direct links.
func (p PageView) Pages() []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

func (p PageView) RangeText() string {
	return fmt.Sprintf("Showing %d-%d of %d results", p.Start, p.End, p.Total)
}

func (c *Controller) Page() PageView {
	filtered := c.Filtered()
	total := len(filtered)
	pages := totalPages(total)

	view := PageView{
		Items:      []model.User{},
		Number:     c.page,
		TotalPages: pages,
		Total:      total,
		HasPrev:    c.page > 1,
		HasNext:    c.page < pages,
	}
	if total == 0 {
		return view
	}

	from := (c.page - 1) * PageSize
	to := from + PageSize
	if to > total {
		to = total
	}
	view.Items = filtered[from:to]
	view.Start = from + 1
	view.End = to
	return view
}

func (c *Controller) RangeText() string {
	return c.Page().RangeText()
}

func (c *Controller) Dialog() *dialog.Dialog {
	return c.dialog
}

func (c *Controller) InitiateDecision(userID string, decision enums.Decision) error {
	return c.dialog.Open(userID, decision)
}

func (c *Controller) CancelDecision() {
	c.dialog.Cancel()
}

// ConfirmDecision submits the open intent, then refreshes regardless of the
// outcome and closes the dialog. A duplicate in-flight submit closes the
// dialog without a refresh. A missing required reason keeps it open.
func (c *Controller) ConfirmDecision(ctx context.Context, reason string) (string, error) {
	intent, err := c.dialog.Begin(reason)
	if err != nil {
		return "", err
	}

	message, err := c.submitter.Submit(ctx, intent, c.origin)
	if errors.Is(err, decisions.ErrInFlight) {
		c.dialog.Finish(true)
		return "", err
	}
	if err != nil {
		c.logger.Error("listing decision failed",
			zap.String("user_id", intent.TargetUserID),
			zap.String("decision", string(intent.Decision)),
			zap.Error(err),
		)
	}

	_ = c.Refresh(ctx)
	c.dialog.Finish(true)
	return message, err
}

func (c *Controller) clampPage() {
	maxPage := totalPages(len(c.Filtered()))
	if maxPage < 1 {
		maxPage = 1
	}
	if c.page < 1 {
		c.page = 1
	}
	if c.page > maxPage {
		c.page = maxPage
	}
}

func totalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}
