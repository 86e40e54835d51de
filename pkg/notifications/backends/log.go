package backends

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// LogBackend writes notifications to the application log. Useful in
// development and as a deliverability-proof fallback channel.
type LogBackend struct {
	logger hclog.Logger
}

// NewLogBackend creates a log backend.
func NewLogBackend(logger hclog.Logger) *LogBackend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LogBackend{logger: logger.Named("notify.log")}
}

func (b *LogBackend) Name() string { return "log" }

func (b *LogBackend) Handle(_ context.Context, msg *Message) error {
	for _, r := range msg.Recipients {
		b.logger.Info("notification",
			"type", msg.Type,
			"subject", msg.Subject,
			"recipient", r.Email,
			"document_id", msg.DocumentID,
		)
	}
	return nil
}
