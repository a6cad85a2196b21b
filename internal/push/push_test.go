package push

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"Stardust/internal/model"
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type collector struct {
	mu     sync.Mutex
	deltas []model.PlayerDelta
}

func (c *collector) handle(d model.PlayerDelta) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltas = append(c.deltas, d)
	return true
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deltas)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscriberReceivesOwnDeltas(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	sub := NewSubscriber(wsURL(srv), "p1")
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, c.handle) }()

	eventually(t, func() bool { return hub.Subscribers() == 1 })

	stars := 7
	hub.Publish(model.PlayerDelta{PlayerID: "p2", Stars: &stars})
	hub.Publish(model.PlayerDelta{PlayerID: "p1", Stars: &stars})

	eventually(t, func() bool { return c.len() == 1 })
	c.mu.Lock()
	got := c.deltas[0]
	c.mu.Unlock()
	if got.PlayerID != "p1" || got.Stars == nil || *got.Stars != 7 {
		t.Errorf("unexpected delta %+v", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestSubscriberReconnects(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	sub := NewSubscriber(wsURL(srv), "p1")
	sub.MinBackoff = 10 * time.Millisecond
	sub.MaxBackoff = 20 * time.Millisecond
	go sub.Run(ctx, c.handle)

	eventually(t, func() bool { return hub.Subscribers() == 1 })
	hub.Close()
	eventually(t, func() bool { return hub.Subscribers() == 1 })

	banned := true
	hub.Publish(model.PlayerDelta{PlayerID: "p1", IsBanned: &banned})
	eventually(t, func() bool { return c.len() == 1 })
}
