package notify

import (
	"context"
	"log/slog"
)

// Log writes notifications to a structured logger and answers every dialog
// with a fixed choice. Useful for headless runs.
type Log struct {
	logger *slog.Logger
	answer bool
}

func NewLog(l *slog.Logger, answer bool) *Log {
	if l == nil {
		l = slog.Default()
	}
	return &Log{logger: l, answer: answer}
}

func (n *Log) Error(ctx context.Context, msg string) {
	n.logger.WarnContext(ctx, "notification", "kind", KindError, "message", msg)
}

func (n *Log) Confirm(ctx context.Context, d Dialog) (bool, error) {
	n.logger.InfoContext(ctx, "dialog", "title", d.Title, "message", d.Message, "answer", n.answer)
	return n.answer, nil
}
