package notify

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
)

// Log writes summaries to the process log. Used when no notification
// channel is configured.
type Log struct{}

var _ interfaces.Notifier = (*Log)(nil)

func NewLog() *Log { return &Log{} }

func (l *Log) Send(ctx context.Context, subject, body string) error {
	logger.Info(ctx, "Daily summary", "subject", subject, "body", body)
	return nil
}
