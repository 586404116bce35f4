package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/models"
)

func TestHubAddAndRemove(t *testing.T) {
	hub := NewHub()

	info := ConnInfo{ConnID: "c1", ConnectedAt: time.Now()}
	hub.Add("c1", nil, info)
	if len(hub.clients) != 1 {
		t.Fatalf("expected client to be registered")
	}

	got, ok := hub.Info("c1")
	if !ok || got.ConnID != "c1" {
		t.Fatalf("expected conn info for c1, got %+v ok=%v", got, ok)
	}

	hub.Remove("c1")
	if len(hub.clients) != 0 {
		t.Fatalf("expected client to be removed")
	}
	if _, ok := hub.Info("c1"); ok {
		t.Fatalf("expected no info after removal")
	}
}

func TestHubRemoveUnknownIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Remove("never-added")
	if len(hub.clients) != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestWriteErrorRemovesClient(t *testing.T) {
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer clientConn.Close()
	serverConn := <-connCh

	hub := NewHub()
	hub.Add("c1", serverConn, ConnInfo{ConnID: "c1", ConnectedAt: time.Now()})

	// Once the underlying socket is gone the next write must fail and the
	// client must be dropped from the registry, not retried.
	serverConn.Close()
	hub.Broadcast(models.ServerEvent{Event: "ping"})

	if _, ok := hub.Info("c1"); ok {
		t.Fatal("expected client to be removed after write error")
	}
}

func TestNewConnIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newConnID()
		if id == "" {
			t.Fatal("empty conn id")
		}
		if seen[id] {
			t.Fatalf("duplicate conn id %s", id)
		}
		seen[id] = true
	}
}
