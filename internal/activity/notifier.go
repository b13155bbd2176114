package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskflow/taskflow/internal/db/models"
	"github.com/taskflow/taskflow/internal/safego"
	"github.com/taskflow/taskflow/internal/telemetry"
)

// Notifier fans recorded activity out to the configured shipper without
// blocking the request path. A nil shipper disables shipping but keeps the
// metrics counter.
type Notifier struct {
	shipper Shipper
}

// NewNotifier creates a Notifier. shipper may be nil.
func NewNotifier(shipper Shipper) *Notifier {
	return &Notifier{shipper: shipper}
}

// Notify records the event metric and ships the entry asynchronously.
// The DB row has already been committed by the repository at this point.
func (n *Notifier) Notify(entry *models.ActivityLog) {
	telemetry.ActivityEventsTotal.WithLabelValues(entry.Action).Inc()

	if n == nil || n.shipper == nil {
		return
	}

	event := FromLog(entry)
	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.shipper.Ship(ctx, event); err != nil {
			slog.Warn("failed to ship activity event", "action", event.Action, "error", err)
		}
	})
}

// Close releases shipper resources
func (n *Notifier) Close() error {
	if n == nil || n.shipper == nil {
		return nil
	}
	return n.shipper.Close()
}
