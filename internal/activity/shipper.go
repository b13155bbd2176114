// Package activity ships domain activity events to external destinations.
// Activity rows are always written to the activity_logs table inside the
// mutation's transaction; shipping is an additional, best-effort fan-out for
// teams that want events in a file tail or a webhook consumer. Shipping
// failures never fail the originating request.
package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
)

// Event is the wire form of a shipped activity entry
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id,omitempty"`
}

// FromLog converts a stored activity log row into a shippable event
func FromLog(entry *models.ActivityLog) *Event {
	e := &Event{
		Timestamp:  entry.CreatedAt,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
	}
	if entry.WorkspaceID != nil {
		e.WorkspaceID = *entry.WorkspaceID
	}
	if entry.EntityID != nil {
		e.EntityID = *entry.EntityID
	}
	return e
}

// Shipper delivers activity events to a destination
type Shipper interface {
	// Ship sends a single event
	Ship(ctx context.Context, event *Event) error
	// Close cleans up any resources
	Close() error
}

// NewShipper builds a shipper fan-out from configuration. Returns nil when
// shipping is disabled or no shipper is configured.
func NewShipper(cfg *config.ActivityConfig) (Shipper, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	shippers := make([]Shipper, 0, len(cfg.Shippers))
	for _, sc := range cfg.Shippers {
		if !sc.Enabled {
			continue
		}

		switch sc.Type {
		case "webhook":
			if sc.Webhook == nil {
				return nil, fmt.Errorf("webhook config is required for webhook shipper")
			}
			shippers = append(shippers, newWebhookShipper(sc.Webhook))
		case "file":
			if sc.File == nil {
				return nil, fmt.Errorf("file config is required for file shipper")
			}
			fs, err := newFileShipper(sc.File)
			if err != nil {
				return nil, err
			}
			shippers = append(shippers, fs)
		default:
			return nil, fmt.Errorf("unknown shipper type: %s", sc.Type)
		}
	}

	if len(shippers) == 0 {
		return nil, nil
	}

	return &multiShipper{shippers: shippers}, nil
}

// multiShipper fans an event out to every configured destination
type multiShipper struct {
	shippers []Shipper
}

func (ms *multiShipper) Ship(ctx context.Context, event *Event) error {
	var lastErr error
	for _, s := range ms.shippers {
		if err := s.Ship(ctx, event); err != nil {
			lastErr = err
			slog.Warn("activity shipper error", "error", err)
		}
	}
	return lastErr
}

func (ms *multiShipper) Close() error {
	var lastErr error
	for _, s := range ms.shippers {
		if err := s.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// webhookShipper POSTs each event as JSON to a configured endpoint
type webhookShipper struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func newWebhookShipper(cfg *config.ActivityWebhookConfig) *webhookShipper {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &webhookShipper{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}
}

func (ws *webhookShipper) Ship(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range ws.headers {
		req.Header.Set(k, v)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (ws *webhookShipper) Close() error {
	return nil
}

// fileShipper appends events as JSON lines to a file
type fileShipper struct {
	file *os.File
	mu   sync.Mutex
}

func newFileShipper(cfg *config.ActivityFileConfig) (*fileShipper, error) {
	file, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log file: %w", err)
	}

	return &fileShipper{file: file}, nil
}

func (fs *fileShipper) Ship(ctx context.Context, event *Event) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write activity event: %w", err)
	}

	return nil
}

func (fs *fileShipper) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
