package enums

import "strings"

type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// Status is the identity status value the backend expects for the decision.
func (d Decision) Status() string {
	switch d {
	case DecisionAccept:
		return StatusAccepted
	case DecisionReject:
		return StatusRejected
	default:
		return ""
	}
}

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

func (d Decision) Verb() string {
	if d == DecisionAccept {
		return "accept"
	}
	return "reject"
}

func ParseDecision(raw string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accept", "accepted":
		return DecisionAccept, true
	case "reject", "rejected":
		return DecisionReject, true
	default:
		return "", false
	}
}
