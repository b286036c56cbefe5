package model

import (
	"strconv"
	"strings"
	"time"
)

type Identity struct {
	FirstName        string
	LastName         string
	NationalIDNumber string
	Gender           string
	Birthdate        string
	IssuerID         string
	Status           string
	ImageBase64      string
}

type User struct {
	ID             string
	BusinessUserID int64
	Identity       Identity
	Email          string
	CreatedAt      string
}

func (u User) FullName() string {
	return strings.TrimSpace(u.Identity.FirstName + " " + u.Identity.LastName)
}

// SearchText is the haystack the listing filter matches against.
func (u User) SearchText() string {
	return strconv.FormatInt(u.BusinessUserID, 10) + " " + u.Identity.FirstName + " " + u.Identity.LastName
}

// SubmittedOn renders CreatedAt as a calendar date, "-" when absent.
func (u User) SubmittedOn() string {
	raw := strings.TrimSpace(u.CreatedAt)
	if raw == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return raw
}
