package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
)

func dialHub(t *testing.T, server *httptest.Server, instanceID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events?instanceId=" + instanceID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHubPublish(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer server.Close()

	conn := dialHub(t, server, "watched")
	defer conn.Close()

	// Subscription registration happens in the upgrade handler before the
	// dial returns, so publishing immediately is safe.
	hub.Publish("watched", provider.Event{Type: provider.EventReady})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg EventMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.InstanceID != "watched" || msg.Event != string(provider.EventReady) {
		t.Errorf("unexpected event: %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("expected a timestamp")
	}
}

func TestHubSubscriberIsolation(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer server.Close()

	conn := dialHub(t, server, "mine")
	defer conn.Close()

	hub.Publish("other", provider.Event{Type: provider.EventDisconnected, Reason: "gone"})
	hub.Publish("mine", provider.Event{Type: provider.EventQR})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg EventMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.InstanceID != "mine" {
		t.Errorf("received an event for another instance: %+v", msg)
	}
}

func TestHubMissingInstanceID(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without instanceId, got %d", resp.StatusCode)
	}
}
