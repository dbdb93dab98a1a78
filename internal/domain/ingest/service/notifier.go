package service

import (
	"context"
	"log/slog"
)

// LogNotifier is the default Notifier: feedback ends up in the server
// log. Capture clients poll the intake response for the same message,
// so a real push transport stays optional.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Push(_ context.Context, title, body string) error {
	n.logger.Info("feedback", slog.String("title", title), slog.String("body", body))
	return nil
}
