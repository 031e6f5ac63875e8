package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
)

func newTestHub() *WSHub {
	return NewWSHub(newTestLogger())
}

func waitClients(t *testing.T, hub *WSHub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.Clients(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWSHubRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	client := &wsClient{send: make(chan []byte, 16)}
	hub.register <- client
	waitClients(t, hub, 1)

	hub.unregister <- client
	waitClients(t, hub, 0)
}

func TestWSHubBroadcast(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	c1 := &wsClient{send: make(chan []byte, 16)}
	c2 := &wsClient{send: make(chan []byte, 16)}
	hub.register <- c1
	hub.register <- c2

	hub.Broadcast(attr.Event{Type: attr.EventAttributeUpdate, Data: "x"})

	for i, c := range []*wsClient{c1, c2} {
		select {
		case msg := <-c.send:
			var e attr.Event
			if err := json.Unmarshal(msg, &e); err != nil {
				t.Fatalf("client %d: %v", i, err)
			}
			if e.Type != attr.EventAttributeUpdate {
				t.Errorf("client %d: type = %q", i, e.Type)
			}
		case <-time.After(time.Second):
			t.Errorf("client %d did not receive broadcast", i)
		}
	}
}

func TestWSHubSlowClientEviction(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	slow := &wsClient{send: make(chan []byte, 1)}
	fast := &wsClient{send: make(chan []byte, 64)}
	hub.register <- slow
	hub.register <- fast
	waitClients(t, hub, 2)

	hub.Broadcast(attr.Event{Type: "a"})
	hub.Broadcast(attr.Event{Type: "b"})
	waitClients(t, hub, 1)

	hub.mu.RLock()
	_, fastPresent := hub.clients[fast]
	hub.mu.RUnlock()
	if !fastPresent {
		t.Error("fast client should still be present")
	}
	if len(fast.send) != 2 {
		t.Errorf("fast client queued %d messages, want 2", len(fast.send))
	}
}

func TestWSHubEndpointFilter(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	filtered := &wsClient{send: make(chan []byte, 16)}
	ep := uint16(0x0000)
	filtered.endpoint.Store(&ep)
	all := &wsClient{send: make(chan []byte, 16)}
	hub.register <- filtered
	hub.register <- all

	hub.Broadcast(attr.Event{Type: attr.EventAttributeUpdate, Data: attr.AttributeUpdate{Endpoint: 0x1001}})
	hub.Broadcast(attr.Event{Type: attr.EventAttributeUpdate, Data: attr.AttributeUpdate{Endpoint: 0x0000}})
	hub.Broadcast(attr.Event{Type: "other"})

	deadline := time.Now().Add(time.Second)
	for len(all.send) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("unfiltered client got %d messages, want 3", len(all.send))
		}
		time.Sleep(time.Millisecond)
	}
	if len(filtered.send) != 2 {
		t.Errorf("filtered client got %d messages, want 2", len(filtered.send))
	}
}

func TestWSHubBroadcastDropsWhenFull(t *testing.T) {
	hub := newTestHub()
	// Not running, so nothing drains the queue.
	for i := 0; i < wsBroadcastBuffer; i++ {
		hub.Broadcast(attr.Event{Type: "fill"})
	}

	done := make(chan struct{})
	go func() {
		hub.Broadcast(attr.Event{Type: "overflow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Broadcast blocked when channel is full")
	}
}

func TestWSHubStopIdempotent(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	hub.Stop()
	hub.Stop()
}

func TestWSHubStopClosesClients(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	client := &wsClient{send: make(chan []byte, 16)}
	hub.register <- client
	hub.Stop()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("client.send should be closed after hub stop")
		}
	case <-time.After(time.Second):
		t.Error("client.send not closed after hub stop")
	}
}

func TestWSHubUnregisterNonExistentClient(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	unknown := &wsClient{send: make(chan []byte, 16)}
	hub.unregister <- unknown
	waitClients(t, hub, 0)

	select {
	case unknown.send <- []byte("test"):
	default:
		t.Error("channel should still be open for non-registered client")
	}
}

func TestWSStreamsTreeEvents(t *testing.T) {
	s, tree := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var snap struct {
		Type string          `json:"type"`
		Data []attributeJSON `json:"data"`
	}
	readJSON(t, ctx, conn, &snap)
	if snap.Type != EventSnapshot {
		t.Fatalf("first message type = %q, want %q", snap.Type, EventSnapshot)
	}
	if len(snap.Data) == 0 {
		t.Fatal("empty snapshot")
	}
	for _, a := range snap.Data {
		if a.Path == onOffPath.String() && string(a.Value) != "false" {
			t.Errorf("snapshot on/off = %s, want false", a.Value)
		}
	}

	if err := tree.Update(onOffPath, zcl.Bool(true)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var update struct {
		Type string `json:"type"`
		Data struct {
			Endpoint uint16 `json:"endpoint"`
			Cluster  uint16 `json:"cluster"`
			Name     string `json:"name"`
			Old      bool   `json:"old"`
			New      bool   `json:"new"`
		} `json:"data"`
	}
	readJSON(t, ctx, conn, &update)
	if update.Type != attr.EventAttributeUpdate {
		t.Fatalf("type = %q, want %q", update.Type, attr.EventAttributeUpdate)
	}
	if update.Data.Endpoint != 0x1001 || update.Data.Cluster != 0x0006 || update.Data.Name != "OnOff" {
		t.Errorf("data = %+v", update.Data)
	}
	if update.Data.Old || !update.Data.New {
		t.Errorf("old/new = %v/%v, want false/true", update.Data.Old, update.Data.New)
	}
}

func readJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}
