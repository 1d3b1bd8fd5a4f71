package models

// PromiseType is the token carried by a structured completion marker.
type PromiseType string

const (
	// PromiseComplete signals the worker believes the work is done.
	PromiseComplete PromiseType = "COMPLETE"
	// PromiseBlocked signals the worker cannot make further progress.
	PromiseBlocked PromiseType = "BLOCKED"
	// PromiseEscalate signals the worker wants a human to take over.
	PromiseEscalate PromiseType = "ESCALATE"
)

// Valid returns true if the promise type is a known value.
func (p PromiseType) Valid() bool {
	switch p {
	case PromiseComplete, PromiseBlocked, PromiseEscalate:
		return true
	default:
		return false
	}
}

// Promise is one detected completion marker in free-text worker output.
type Promise struct {
	// Type is the marker token.
	Type PromiseType `json:"type"`
	// Detected is true when the marker was found in the scanned text.
	Detected bool `json:"detected"`
	// Content is the raw text following the marker on the same line.
	Content string `json:"content,omitempty"`
}
