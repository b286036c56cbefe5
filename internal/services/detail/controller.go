// Package detail resolves one pending user from the full listing and runs
// the decision flow scoped to it.
package detail

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/dialog"
)

const imagePrefix = "data:image/jpeg;base64,"

var ErrNotLoaded = errors.New("no user is loaded")

type State int

const (
	StateIdle State = iota
	StateLoaded
	StateNotFound
)

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

	state  State
	user   model.User
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
		dialog:    dialog.New(reasonRequired),
	}
}

// Load scans the full pending list for userID. A failed fetch is reported
// as not found, same as an absent id.
func (c *Controller) Load(ctx context.Context, userID string) State {
	c.user = model.User{}
	c.state = StateNotFound

	users, err := c.lister.ListPendingUsers(ctx)
	if err != nil {
		c.logger.Error("fetch pending users for detail", zap.String("user_id", userID), zap.Error(err))
		return c.state
	}
	for _, user := range users {
		if user.ID == userID {
			c.user = user
			c.state = StateLoaded
			break
		}
	}
	return c.state
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) User() (model.User, bool) {
	return c.user, c.state == StateLoaded
}

// ImageSrc is the data URI for the identity photo. The payload is not
// validated.
func (c *Controller) ImageSrc() string {
	if c.state != StateLoaded {
		return ""
	}
	return ImageSrc(c.user.Identity.ImageBase64)
}

func ImageSrc(imageBase64 string) string {
	return imagePrefix + imageBase64
}

func (c *Controller) Dialog() *dialog.Dialog {
	return c.dialog
}

func (c *Controller) InitiateDecision(decision enums.Decision) error {
	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	return c.dialog.Open(c.user.ID, decision)
}

func (c *Controller) CancelDecision() {
	c.dialog.Cancel()
}

// ConfirmDecision submits the open intent. The dialog closes only on success
// and the loaded record is not re-fetched.
func (c *Controller) ConfirmDecision(ctx context.Context, reason string) (string, error) {
	if c.state != StateLoaded {
		return "", ErrNotLoaded
	}
	intent, err := c.dialog.Begin(reason)
	if err != nil {
		return "", err
	}

	message, err := c.submitter.Submit(ctx, intent, c.origin)
	if err != nil {
		c.logger.Error("detail decision failed",
			zap.String("user_id", intent.TargetUserID),
			zap.String("decision", string(intent.Decision)),
			zap.Error(err),
		)
		c.dialog.Finish(false)
		return "", err
	}

	c.dialog.Finish(true)
	return message, nil
}
