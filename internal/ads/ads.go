// Package ads brokers ad views between the game core and whatever displays them.
//
// Show never blocks. Exactly one of the two callbacks fires, at most once,
// on a goroutine other than the caller's.
package ads

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownTicket = errors.New("unknown ad ticket")
	ErrAdFailed      = errors.New("ad failed to play")
)

// Provider displays an ad and reports the outcome through callbacks.
// The returned ticket identifies the view to whoever resolves it.
type Provider interface {
	Show(ctx context.Context, placement string, onComplete func(), onError func(error)) string
}

type ticket struct {
	placement  string
	once       sync.Once
	onComplete func()
	onError    func(error)
	stop       func() bool
}

func (t *ticket) resolve(err error) {
	t.once.Do(func() {
		if t.stop != nil {
			t.stop()
		}
		if err != nil {
			go t.onError(err)
			return
		}
		go t.onComplete()
	})
}

// Gate waits for an external party (the client UI over HTTP) to report each
// ad view as completed or failed.
type Gate struct {
	mu      sync.Mutex
	pending map[string]*ticket
}

func NewGate() *Gate {
	return &Gate{pending: make(map[string]*ticket)}
}

// Show registers a pending view. Cancelling ctx fails the view with ctx.Err().
func (g *Gate) Show(ctx context.Context, placement string, onComplete func(), onError func(error)) string {
	id := uuid.NewString()
	t := &ticket{placement: placement, onComplete: onComplete, onError: onError}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending[id] = t
	t.stop = context.AfterFunc(ctx, func() {
		if g.take(id) != nil {
			t.resolve(ctx.Err())
		}
	})
	return id
}

func (g *Gate) take(id string) *ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.pending[id]
	if !ok {
		return nil
	}
	delete(g.pending, id)
	return t
}

// Complete resolves a view as watched to the end.
func (g *Gate) Complete(id string) error {
	t := g.take(id)
	if t == nil {
		return ErrUnknownTicket
	}
	t.resolve(nil)
	return nil
}

// Fail resolves a view as failed. A nil reason becomes ErrAdFailed.
func (g *Gate) Fail(id string, reason error) error {
	t := g.take(id)
	if t == nil {
		return ErrUnknownTicket
	}
	if reason == nil {
		reason = ErrAdFailed
	}
	t.resolve(reason)
	return nil
}

// Placement returns the placement of a pending ticket.
func (g *Gate) Placement(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.pending[id]
	if !ok {
		return "", false
	}
	return t.placement, true
}

// Instant completes every view immediately. Used in development mode.
type Instant struct{}

func (Instant) Show(_ context.Context, _ string, onComplete func(), _ func(error)) string {
	go onComplete()
	return uuid.NewString()
}
