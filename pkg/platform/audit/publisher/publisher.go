// Package publisher emits audit events to a Store, synchronously by default
// or through a bounded buffer drained by a background goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "driverdesk/pkg/platform/audit"
)

// Publisher forwards events to a store. Audit failures are logged and never
// fail the business operation that emitted them.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer int
	inbox  chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches to asynchronous delivery with a buffer of size n.
// A full buffer drops the event with a warning.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan audit.Event, p.buffer)
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. The timestamp defaults to now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "failed to append audit event",
				"action", event.Action,
				"tracker_id", event.TrackerID,
				"error", err,
			)
			return err
		}
		return nil
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"tracker_id", event.TrackerID,
		)
	}
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to append audit event",
				"action", event.Action,
				"tracker_id", event.TrackerID,
				"error", err,
			)
		}
	}
}

// Close drains buffered events. Emit must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
