package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

var ErrClosed = errors.New("bus: queue closed")

// MessageBus is the in-process queue used when the HTTP endpoint and the
// worker share one binary.
type MessageBus struct {
	pending   chan Envelope
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

func NewMessageBus(buffer int) *MessageBus {
	if buffer <= 0 {
		buffer = 100
	}
	return &MessageBus{
		pending: make(chan Envelope, buffer),
		done:    make(chan struct{}),
	}
}

func (mb *MessageBus) Publish(ctx context.Context, c Continuation) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return "", ErrClosed
	}

	env := Envelope{ID: uuid.NewString(), Continuation: c}
	select {
	case mb.pending <- env:
		return env.ID, nil
	case <-mb.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Consume runs each continuation on its own goroutine. When ctx is cancelled
// or the bus is closed, the bus stops accepting publishes and every
// continuation already buffered is still handed to h, with the cancelled ctx.
// Consume returns once all handlers have finished.
func (mb *MessageBus) Consume(ctx context.Context, h Handler) error {
	defer mb.wg.Wait()

	for {
		select {
		case env := <-mb.pending:
			mb.dispatch(ctx, h, env)
		case <-ctx.Done():
			mb.drain(ctx, h)
			return nil
		case <-mb.done:
			mb.drain(ctx, h)
			return nil
		}
	}
}

func (mb *MessageBus) drain(ctx context.Context, h Handler) {
	_ = mb.Close()

	n := 0
	for {
		select {
		case env := <-mb.pending:
			mb.dispatch(ctx, h, env)
			n++
		default:
			if n > 0 {
				logger.InfoCF("bus", "Drained buffered continuations", map[string]any{"count": n})
			}
			return
		}
	}
}

func (mb *MessageBus) dispatch(ctx context.Context, h Handler, env Envelope) {
	mb.wg.Add(1)
	go func() {
		defer mb.wg.Done()
		if err := runHandler(ctx, h, env); err != nil {
			logger.WarnCF("bus", "Continuation handler failed", map[string]any{
				"id":    env.ID,
				"token": RedactToken(env.Continuation.Token),
				"error": err.Error(),
			})
		}
	}()
}

// Close stops new publishes. It returns after every in-flight Publish has
// either buffered its continuation or failed, so a drain that follows sees
// everything that was accepted.
func (mb *MessageBus) Close() error {
	mb.closeOnce.Do(func() { close(mb.done) })

	mb.mu.Lock()
	mb.closed = true
	mb.mu.Unlock()
	return nil
}
