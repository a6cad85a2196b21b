package push

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"Stardust/internal/metrics"
	"Stardust/internal/model"
)

// Handler receives each delta. session.Manager.ApplyPush fits.
type Handler func(d model.PlayerDelta) bool

// Subscriber keeps a websocket connection to a push hub and reconnects with
// exponential backoff when it drops.
type Subscriber struct {
	URL        string
	PlayerID   string
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Dialer     *websocket.Dialer
}

// NewSubscriber creates a subscriber for one player's deltas.
func NewSubscriber(rawURL, playerID string) *Subscriber {
	return &Subscriber{
		URL:        rawURL,
		PlayerID:   playerID,
		MinBackoff: time.Second,
		MaxBackoff: time.Minute,
		Dialer:     websocket.DefaultDialer,
	}
}

func (s *Subscriber) target() (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", err
	}
	if s.PlayerID != "" {
		q := u.Query()
		q.Set("player", s.PlayerID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Run blocks until ctx is cancelled, delivering deltas to handle.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	target, err := s.target()
	if err != nil {
		return err
	}
	backoff := s.MinBackoff
	for {
		connected, err := s.session(ctx, target, handle)
		if ctx.Err() != nil {
			log.Println("[INFO] push subscriber stopped")
			return nil
		}
		if connected {
			backoff = s.MinBackoff
		}
		metrics.ExternalFailures.WithLabelValues("push").Inc()
		log.Printf("[WARN] push connection lost: %v, reconnecting in %v", err, backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, s.MaxBackoff)
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (s *Subscriber) session(ctx context.Context, target string, handle Handler) (connected bool, err error) {
	conn, _, err := s.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Printf("[INFO] push subscriber connected to %s", s.URL)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var d model.PlayerDelta
		if err := json.Unmarshal(data, &d); err != nil {
			log.Printf("[WARN] bad push payload: %v", err)
			continue
		}
		handle(d)
	}
}
