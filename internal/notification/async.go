package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// sendTimeout bounds a single background send.
const sendTimeout = 5 * time.Second

// Async is a fire-and-forget Notifier: every request is sent from its own goroutine
// with a short timeout, detached from the caller's context.
type Async struct {
	sink Sink
	now  func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync returns a Notifier that sends through sink in the background.
func NewAsync(sink Sink) *Async {
	return &Async{sink: sink, now: time.Now}
}

// Notify fills in id and timestamp and sends n without blocking.
// Requests arriving after Close are dropped.
func (a *Async) Notify(ctx context.Context, n Notification) {
	if a == nil || a.sink == nil || n.UserID == "" {
		return
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = a.now().UTC()
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		log.Debug().Str("kind", string(n.Kind)).Str("user_id", n.UserID).Msg("notifier closed, dropping notification")
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if err := a.sink.Send(sendCtx, n); err != nil {
			log.Warn().Err(err).
				Str("kind", string(n.Kind)).
				Str("user_id", n.UserID).
				Msg("notification send failed")
		}
	}()
}

// Close stops accepting requests and waits for in-flight sends or until ctx is done.
// It may be called more than once.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
