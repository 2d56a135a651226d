package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"studioku_backend/internals/metrics"
)

type DispatcherOptions struct {
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	PublishTimeout time.Duration
}

func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		QueueSize:      256,
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

type queued struct {
	ctx context.Context
	ev  Event
}

// Dispatcher decouples event delivery from the request: Dispatch never
// blocks and never returns an error; a single worker publishes with retry.
type Dispatcher struct {
	pub  Publisher
	opts DispatcherOptions

	mu     sync.RWMutex
	closed bool
	queue  chan queued
	done   chan struct{}
}

func NewDispatcher(pub Publisher, opts DispatcherOptions) *Dispatcher {
	def := DefaultDispatcherOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = def.PublishTimeout
	}
	d := &Dispatcher{
		pub:   pub,
		opts:  opts,
		queue: make(chan queued, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues ev. The request context is detached from cancellation
// but keeps its values (trace span, logger).
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Ctx(ctx).Warn().Str("type", string(ev.Type)).Msg("dispatcher closed, notification dropped")
		metrics.NotificationsPublished.WithLabelValues(string(ev.Type), "dropped").Inc()
		return
	}
	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		log.Ctx(ctx).Warn().Str("type", string(ev.Type)).Msg("notification queue full, event dropped")
		metrics.NotificationsPublished.WithLabelValues(string(ev.Type), "dropped").Inc()
	}
}

// Close stops intake, drains what is queued and closes the publisher.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.pub.Close()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for item := range d.queue {
		d.deliver(item.ctx, item.ev)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	backoff := d.opts.InitialBackoff
	var err error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, d.opts.PublishTimeout)
		err = d.pub.Publish(pctx, ev)
		cancel()
		if err == nil {
			metrics.NotificationsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
			return
		}
		log.Ctx(ctx).Warn().Err(err).
			Str("type", string(ev.Type)).
			Int("attempt", attempt).
			Msg("notification publish failed")
		if attempt < d.opts.MaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	metrics.NotificationsPublished.WithLabelValues(string(ev.Type), "failed").Inc()
	log.Ctx(ctx).Error().Err(err).
		Str("event_id", ev.ID.String()).
		Str("type", string(ev.Type)).
		Str("client_id", ev.ClientID.String()).
		Msg("notification given up")
}
