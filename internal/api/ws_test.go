package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaehyun-dev/concord/internal/engine"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(logger.NewNop())
	// Must not block or panic with nobody connected.
	hub.Publish(engine.ProgressEvent{RunID: "run_x", Stage: "run"})
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
}

func TestHub_BroadcastsToClient(t *testing.T) {
	hub := NewHub(logger.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Registration happens during the upgrade, before Dial returns.
	if hub.ClientCount() != 1 {
		t.Fatalf("client count = %d, want 1", hub.ClientCount())
	}

	sent := engine.ProgressEvent{
		RunID:   "run_20250101_090000",
		Stage:   "evaluate",
		Message: "batch evaluation completed",
		At:      time.Now(),
	}
	hub.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got engine.ProgressEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if got.RunID != sent.RunID || got.Stage != sent.Stage {
		t.Errorf("got event %+v, want run %s stage %s", got, sent.RunID, sent.Stage)
	}
}

func TestHub_DisconnectedClientIsDropped(t *testing.T) {
	hub := NewHub(logger.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	resp.Body.Close()
	conn.Close()

	// The read loop notices the close; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0 after disconnect", hub.ClientCount())
	}
}
