// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// Notifier shows a short message to the user. Notify must not block.
type Notifier interface {
	Notify(msg string, severity types.Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string, severity types.Severity)

// Notify calls f.
func (f NotifierFunc) Notify(msg string, severity types.Severity) { f(msg, severity) }

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs msg at a level matching severity.
func (n LogNotifier) Notify(msg string, severity types.Severity) {
	logger := n.Logger
	if logger == nil {
		return
	}
	switch severity {
	case types.SeverityError:
		logger.Error(msg)
	case types.SeverityWarning:
		logger.Warn(msg)
	default:
		logger.Info(msg, zap.String("severity", string(severity)))
	}
}

// Notifiers fans a notification out to several sinks.
type Notifiers []Notifier

// Notify forwards to every sink.
func (ns Notifiers) Notify(msg string, severity types.Severity) {
	for _, n := range ns {
		if n != nil {
			n.Notify(msg, severity)
		}
	}
}
