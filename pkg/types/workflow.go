// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Mode is the current stage of a Deep Dive workflow.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeProducing Mode = "producing"
	ModeReviewing Mode = "reviewing"
	ModeExpanding Mode = "expanding"
	ModeComplete  Mode = "complete"
)

// Busy reports whether the mode has an external call in flight.
func (m Mode) Busy() bool {
	return m == ModeProducing || m == ModeExpanding
}

// Severity classifies a user notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Snapshot is what the presentation layer renders for one workflow.
type Snapshot struct {
	// Mode is the active workflow stage.
	Mode Mode `json:"mode" yaml:"mode"`

	// Status is the latest human-readable status line.
	Status string `json:"status" yaml:"status"`

	// Progress is the expansion progress, 0-100.
	Progress int `json:"progress" yaml:"progress"`

	// Items is the reviewed measure list, in generation order.
	Items []string `json:"items" yaml:"items"`

	// Document is the accumulated measures text.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`

	// Error is the message of the last failed run, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// CanExpand reports whether the expand action is enabled.
	CanExpand bool `json:"can_expand" yaml:"can_expand"`
}
