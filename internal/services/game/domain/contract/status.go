package contract

import "strings"

// Status describes the contract lifecycle label used by domain decisions.
//
// The uppercase values are the wire values persisted and exposed to callers.
type Status string

const (
	StatusUnspecified Status = ""
	StatusPending     Status = "PENDING"
	StatusActive      Status = "ACTIVE"
	StatusPaused      Status = "PAUSED"
	StatusResolved    Status = "RESOLVED"
)

// ParseStatus canonicalizes a stored status label.
func ParseStatus(value string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "PENDING":
		return StatusPending, true
	case "ACTIVE":
		return StatusActive, true
	case "PAUSED":
		return StatusPaused, true
	case "RESOLVED":
		return StatusResolved, true
	default:
		return StatusUnspecified, false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusResolved
}
