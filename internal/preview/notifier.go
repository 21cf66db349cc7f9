package preview

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier is the fire-and-forget channel for short user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// LogNotifier writes notifications to the log. Used when no chat is attached.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a notifier backed by the logger.
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: logger.WithField("component", "notifier")}
}

// Notify logs the message at info level.
func (n *LogNotifier) Notify(ctx context.Context, message string) {
	n.log.WithField("message", message).Info("User notification")
}
