package decisions

import (
	"fmt"
	"strings"
)

// Scope names the page a decision is confirmed from.
type Scope string

const (
	ScopeListing Scope = "listing"
	ScopeDetail  Scope = "detail"
)

type ReasonPolicy string

const (
	// PolicyLegacy requires a reason on the detail page only.
	PolicyLegacy   ReasonPolicy = "legacy"
	PolicyRequired ReasonPolicy = "required"
	PolicyOptional ReasonPolicy = "optional"
)

func ParseReasonPolicy(raw string) (ReasonPolicy, error) {
	switch policy := ReasonPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return PolicyLegacy, nil
	case PolicyLegacy, PolicyRequired, PolicyOptional:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown reason policy %q", raw)
	}
}

func (p ReasonPolicy) Requires(scope Scope) bool {
	switch p {
	case PolicyRequired:
		return true
	case PolicyOptional:
		return false
	default:
		return scope == ScopeDetail
	}
}
