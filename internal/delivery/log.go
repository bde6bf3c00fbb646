package delivery

import (
	"context"

	"go.uber.org/zap"
)

// Log writes notices to the logger instead of contacting anyone.
type Log struct {
	composer Composer
	logger   *zap.SugaredLogger
}

func NewLog(composer Composer, logger *zap.SugaredLogger) *Log {
	return &Log{composer: composer, logger: logger}
}

func (l *Log) Deliver(ctx context.Context, n Notice) error {
	text, err := l.composer.Compose(ctx, n)
	if err != nil {
		return err
	}
	l.logger.Infow("Reminder delivered",
		"reminder_id", n.ReminderID,
		"recipient", n.Recipient,
		"key", n.Key(),
		"text", text)
	return nil
}
