package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Mock implements the Notifier interface by logging messages. Used when no
// real delivery channel is configured.
type Mock struct {
	log *logrus.Logger
}

func NewMock(log *logrus.Logger) *Mock {
	return &Mock{log: log}
}

func (m *Mock) Publish(ctx context.Context, message string) error {
	m.log.Infof("📨 [MockNotifier] %s", message)
	return nil
}
