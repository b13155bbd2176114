package activity_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/models"
)

// ---------------------------------------------------------------------------
// NewShipper factory
// ---------------------------------------------------------------------------

func TestNewShipper_NilConfig(t *testing.T) {
	s, err := activity.NewShipper(nil)
	if err != nil {
		t.Fatalf("NewShipper(nil) error: %v", err)
	}
	if s != nil {
		t.Error("NewShipper(nil) should return a nil shipper")
	}
}

func TestNewShipper_Disabled(t *testing.T) {
	cfg := &config.ActivityConfig{
		Enabled: false,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: true, Type: "webhook", Webhook: &config.ActivityWebhookConfig{URL: "http://example.com"}},
		},
	}
	s, err := activity.NewShipper(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Error("disabled config should return a nil shipper")
	}
}

func TestNewShipper_AllShippersDisabled(t *testing.T) {
	cfg := &config.ActivityConfig{
		Enabled: true,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: false, Type: "webhook", Webhook: &config.ActivityWebhookConfig{URL: "http://example.com"}},
		},
	}
	s, err := activity.NewShipper(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Error("config with no enabled shippers should return a nil shipper")
	}
}

func TestNewShipper_UnknownType(t *testing.T) {
	cfg := &config.ActivityConfig{
		Enabled:  true,
		Shippers: []config.ActivityShipperConfig{{Enabled: true, Type: "carrier-pigeon"}},
	}
	if _, err := activity.NewShipper(cfg); err == nil {
		t.Error("expected error for unknown shipper type, got nil")
	}
}

func TestNewShipper_WebhookNilConfig(t *testing.T) {
	cfg := &config.ActivityConfig{
		Enabled:  true,
		Shippers: []config.ActivityShipperConfig{{Enabled: true, Type: "webhook"}},
	}
	if _, err := activity.NewShipper(cfg); err == nil {
		t.Error("expected error for webhook shipper without webhook config, got nil")
	}
}

func TestNewShipper_FileNilConfig(t *testing.T) {
	cfg := &config.ActivityConfig{
		Enabled:  true,
		Shippers: []config.ActivityShipperConfig{{Enabled: true, Type: "file"}},
	}
	if _, err := activity.NewShipper(cfg); err == nil {
		t.Error("expected error for file shipper without file config, got nil")
	}
}

func TestNewShipper_ContinuesAfterShipperError(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv1.Close()

	var srv2Count int
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		srv2Count++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv2.Close()

	cfg := &config.ActivityConfig{
		Enabled: true,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: true, Type: "webhook", Webhook: &config.ActivityWebhookConfig{URL: srv1.URL, TimeoutSecs: 1}},
			{Enabled: true, Type: "webhook", Webhook: &config.ActivityWebhookConfig{URL: srv2.URL, TimeoutSecs: 1}},
		},
	}
	s, err := activity.NewShipper(cfg)
	if err != nil {
		t.Fatalf("NewShipper error: %v", err)
	}
	defer s.Close()

	shipErr := s.Ship(context.Background(), &activity.Event{Action: "test"})
	if shipErr == nil {
		t.Error("Ship() = nil, want error from failing destination")
	}
	if srv2Count != 1 {
		t.Errorf("second destination received %d calls, want 1", srv2Count)
	}
}

// ---------------------------------------------------------------------------
// Webhook shipping
// ---------------------------------------------------------------------------

func webhookConfig(url string) *config.ActivityConfig {
	return &config.ActivityConfig{
		Enabled: true,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: true, Type: "webhook", Webhook: &config.ActivityWebhookConfig{URL: url, TimeoutSecs: 5}},
		},
	}
}

func TestWebhookShip_DeliversEvent(t *testing.T) {
	var received bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		received.ReadFrom(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := activity.NewShipper(webhookConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewShipper error: %v", err)
	}
	defer s.Close()

	event := &activity.Event{
		Timestamp:   time.Now(),
		WorkspaceID: "ws-1",
		UserID:      "user-1",
		Action:      models.ActionMilestoneCreated,
		EntityType:  "milestone",
		EntityID:    "ms-1",
	}
	if err := s.Ship(context.Background(), event); err != nil {
		t.Fatalf("Ship() error: %v", err)
	}

	var decoded activity.Event
	if err := json.Unmarshal(received.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal delivered payload: %v", err)
	}
	if decoded.Action != event.Action {
		t.Errorf("Action = %q, want %q", decoded.Action, event.Action)
	}
	if decoded.WorkspaceID != "ws-1" {
		t.Errorf("WorkspaceID = %q, want ws-1", decoded.WorkspaceID)
	}
}

func TestWebhookShip_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, _ := activity.NewShipper(webhookConfig(srv.URL))
	defer s.Close()

	if err := s.Ship(context.Background(), &activity.Event{Action: "err"}); err == nil {
		t.Error("Ship() = nil, want error for 500 response")
	}
}

func TestWebhookShip_CustomHeader(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Auth-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.ActivityConfig{
		Enabled: true,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: true, Type: "webhook", Webhook: &config.ActivityWebhookConfig{
				URL:     srv.URL,
				Headers: map[string]string{"X-Auth-Token": "secret"},
			}},
		},
	}
	s, _ := activity.NewShipper(cfg)
	defer s.Close()

	s.Ship(context.Background(), &activity.Event{Action: "header.test"})
	if gotToken != "secret" {
		t.Errorf("X-Auth-Token = %q, want secret", gotToken)
	}
}

// ---------------------------------------------------------------------------
// File shipping
// ---------------------------------------------------------------------------

func fileConfig(path string) *config.ActivityConfig {
	return &config.ActivityConfig{
		Enabled: true,
		Shippers: []config.ActivityShipperConfig{
			{Enabled: true, Type: "file", File: &config.ActivityFileConfig{Path: path}},
		},
	}
}

func TestFileShip_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	s, err := activity.NewShipper(fileConfig(path))
	if err != nil {
		t.Fatalf("NewShipper error: %v", err)
	}

	event := &activity.Event{UserID: "user-2", Action: models.ActionProjectCreated, EntityType: "project"}
	if err := s.Ship(context.Background(), event); err != nil {
		t.Fatalf("Ship() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var decoded activity.Event
	if err := json.Unmarshal(bytes.TrimRight(data, "\n"), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Action != event.Action {
		t.Errorf("Action = %q, want %q", decoded.Action, event.Action)
	}
	if decoded.UserID != "user-2" {
		t.Errorf("UserID = %q, want user-2", decoded.UserID)
	}
}

func TestFileShip_MultipleEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.log")

	s, _ := activity.NewShipper(fileConfig(path))
	for i := 0; i < 5; i++ {
		s.Ship(context.Background(), &activity.Event{Action: "test", UserID: "user-1"})
	}
	s.Close()

	data, _ := os.ReadFile(path)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	count := 0
	for scanner.Scan() {
		count++
	}
	if count != 5 {
		t.Errorf("file has %d lines, want 5", count)
	}
}

func TestNewShipper_FileInvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodir", "activity.log")
	if _, err := activity.NewShipper(fileConfig(path)); err == nil {
		t.Error("expected error for path with nonexistent parent, got nil")
	}
}

// ---------------------------------------------------------------------------
// FromLog
// ---------------------------------------------------------------------------

func TestFromLog(t *testing.T) {
	ws := "ws-1"
	entity := "ms-9"
	now := time.Now()
	entry := &models.ActivityLog{
		WorkspaceID: &ws,
		UserID:      "user-1",
		Action:      models.ActionMilestoneUpdated,
		EntityType:  "milestone",
		EntityID:    &entity,
		CreatedAt:   now,
	}

	e := activity.FromLog(entry)
	if e.WorkspaceID != "ws-1" {
		t.Errorf("WorkspaceID = %q", e.WorkspaceID)
	}
	if e.EntityID != "ms-9" {
		t.Errorf("EntityID = %q", e.EntityID)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, now)
	}
}

func TestFromLog_NilOptionals(t *testing.T) {
	e := activity.FromLog(&models.ActivityLog{
		UserID:     "user-1",
		Action:     models.ActionProfileUpdated,
		EntityType: "user",
	})
	if e.WorkspaceID != "" || e.EntityID != "" {
		t.Errorf("optional fields should stay empty, got %q / %q", e.WorkspaceID, e.EntityID)
	}
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

func TestNotifier_NilShipperIsSafe(t *testing.T) {
	n := activity.NewNotifier(nil)
	n.Notify(&models.ActivityLog{UserID: "user-1", Action: models.ActionProjectCreated, EntityType: "project"})
	if err := n.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestNotifier_NilReceiverIsSafe(t *testing.T) {
	var n *activity.Notifier
	n.Notify(&models.ActivityLog{UserID: "user-1", Action: models.ActionProjectCreated, EntityType: "project"})
	if err := n.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestNotifier_ShipsAsynchronously(t *testing.T) {
	done := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		done <- struct{}{}
	}))
	defer srv.Close()

	s, err := activity.NewShipper(webhookConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewShipper error: %v", err)
	}
	n := activity.NewNotifier(s)
	defer n.Close()

	n.Notify(&models.ActivityLog{UserID: "user-1", Action: models.ActionMilestoneDeleted, EntityType: "milestone"})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Error("timed out waiting for notifier to ship event")
	}
}
