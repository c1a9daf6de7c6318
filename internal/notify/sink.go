package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Sink delivers a text message to a recipient identified by telegram id.
// Delivery is best-effort: callers log failures and move on.
type Sink interface {
	Send(ctx context.Context, telegramID int64, text string) error
}

// LogSink writes notifications to the log, used in offline mode.
type LogSink struct {
	Logger *logrus.Logger
}

func (s *LogSink) Send(_ context.Context, telegramID int64, text string) error {
	s.Logger.WithField("recipient", telegramID).Infof("notify: %s", text)
	return nil
}
