package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. It is used when no
// notification topic is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, subject, message string, attributes map[string]string) error {
	n.log.Info("notification",
		zap.String("subject", subject),
		zap.String("message", message),
		zap.Any("attributes", attributes))
	return nil
}
