// Package dialog holds the reason-capture dialog shared by the listing and
// detail controllers. It never talks to the network.
package dialog

import (
	"errors"
	"strings"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
)

var (
	ErrReasonRequired = errors.New("reason is required")
	ErrNotOpen        = errors.New("dialog is not open")
	ErrSubmitting     = errors.New("dialog is already submitting")
	ErrInvalidTarget  = errors.New("invalid dialog target")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

type Dialog struct {
	required bool
	state    State
	intent   model.ActionIntent
}

func New(reasonRequired bool) *Dialog {
	return &Dialog{required: reasonRequired}
}

func (d *Dialog) State() State {
	return d.state
}

func (d *Dialog) IsOpen() bool {
	return d.state != StateClosed
}

func (d *Dialog) ReasonRequired() bool {
	return d.required
}

// Intent returns the pending intent; ok is false while closed.
func (d *Dialog) Intent() (model.ActionIntent, bool) {
	if d.state == StateClosed {
		return model.ActionIntent{}, false
	}
	return d.intent, true
}

// Title reads "Accept User" or "Reject User".
func (d *Dialog) Title() string {
	switch d.intent.Decision {
	case enums.DecisionAccept:
		return "Accept User"
	case enums.DecisionReject:
		return "Reject User"
	default:
		return ""
	}
}

// Open replaces any previous intent. Opening while submitting is refused.
func (d *Dialog) Open(targetUserID string, decision enums.Decision) error {
	if d.state == StateSubmitting {
		return ErrSubmitting
	}
	if strings.TrimSpace(targetUserID) == "" || !decision.Valid() {
		return ErrInvalidTarget
	}
	d.intent = model.ActionIntent{TargetUserID: targetUserID, Decision: decision}
	d.state = StateOpen
	return nil
}

// Begin moves an open dialog to submitting and returns the intent to send.
// An empty reason under a required policy keeps the dialog open. The reason
// is sent as typed, so whitespace counts as a reason.
func (d *Dialog) Begin(reason string) (model.ActionIntent, error) {
	switch d.state {
	case StateClosed:
		return model.ActionIntent{}, ErrNotOpen
	case StateSubmitting:
		return model.ActionIntent{}, ErrSubmitting
	}

	d.intent.Reason = reason
	if d.required && reason == "" {
		return model.ActionIntent{}, ErrReasonRequired
	}
	d.state = StateSubmitting
	return d.intent, nil
}

// Finish ends a submission. closeDialog=false returns to Open with the reason kept.
func (d *Dialog) Finish(closeDialog bool) {
	if d.state != StateSubmitting {
		return
	}
	if closeDialog {
		d.reset()
		return
	}
	d.state = StateOpen
}

func (d *Dialog) Cancel() {
	if d.state == StateSubmitting {
		return
	}
	d.reset()
}

func (d *Dialog) reset() {
	d.state = StateClosed
	d.intent = model.ActionIntent{}
}
