package model

import "github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"

// ActionIntent lives only while the reason dialog is open.
type ActionIntent struct {
	TargetUserID string
	Decision     enums.Decision
	Reason       string
}
