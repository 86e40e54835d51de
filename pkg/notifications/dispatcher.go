package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/docuforge/docuvault/pkg/notifications/backends"
)

// Notifier is what the core services depend on. Implementations:
// Publisher (broker) and Dispatcher (in-process backends). All call
// sites treat delivery as fire-and-forget; a Notifier error is logged
// by the caller and never propagated into the primary operation.
type Notifier interface {
	Notify(ctx context.Context, msg *NotificationMessage) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *NotificationMessage) error { return nil }

// Dispatcher fans a notification out to the registered in-process
// backends.
type Dispatcher struct {
	registry *backends.Registry
	logger   hclog.Logger
}

// NewDispatcher creates a dispatcher over a backend registry.
func NewDispatcher(registry *backends.Registry, logger hclog.Logger) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger.Named("notifications"),
	}
}

// Notify delivers the message to every backend the message routes to.
// Backend failures are aggregated; partial delivery is still delivery,
// so every matching backend is attempted even after one fails.
func (d *Dispatcher) Notify(ctx context.Context, msg *NotificationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	var result *multierror.Error
	for _, name := range msg.Backends {
		backend, ok := d.registry.GetBackend(name)
		if !ok {
			d.logger.Warn("unknown notification backend", "backend", name)
			continue
		}
		if err := backend.Handle(ctx, toBackendMessage(msg)); err != nil {
			result = multierror.Append(result, err)
			d.logger.Error("notification backend failed",
				"backend", name,
				"type", msg.Type,
				"error", err,
			)
		}
	}
	return result.ErrorOrNil()
}

// toBackendMessage converts the envelope to the backend-facing form.
func toBackendMessage(msg *NotificationMessage) *backends.Message {
	recipients := make([]backends.Recipient, len(msg.Recipients))
	for i, r := range msg.Recipients {
		recipients[i] = backends.Recipient{
			UserID: r.UserID,
			Email:  r.Email,
			Name:   r.Name,
		}
	}
	return &backends.Message{
		ID:         msg.ID,
		Type:       string(msg.Type),
		Timestamp:  msg.Timestamp,
		Subject:    msg.Subject,
		Body:       msg.Body,
		DocumentID: msg.DocumentID,
		Recipients: recipients,
	}
}
