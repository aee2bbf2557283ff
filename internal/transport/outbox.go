package transport

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// OutboxConfig bounds the async send queue.
type OutboxConfig struct {
	RatePerSec float64 // token bucket refill (default 1)
	Burst      int     // token bucket burst (default 5)
	Depth      int     // queued sends before drop (default 256)
}

// Outbox decouples callers from a slow Sink: requests queue up behind a
// rate limiter and a single delivery goroutine. When the queue is full
// the request is dropped and logged — the bridge's fire-and-forget
// contract means nobody is waiting for the outcome.
type Outbox struct {
	sink    Sink
	queue   chan SendRequest
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewOutbox starts the delivery goroutine around the given sink.
func NewOutbox(sink Sink, cfg OutboxConfig) *Outbox {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 256
	}
	o := &Outbox{
		sink:    sink,
		queue:   make(chan SendRequest, cfg.Depth),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		done:    make(chan struct{}),
	}
	go o.deliver()
	return o
}

// Submit queues a send request. Never blocks; drops on overflow and
// after Close.
func (o *Outbox) Submit(req SendRequest) {
	// The mutex pairs with Close: no send may be in flight when the
	// queue channel is closed.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		slog.Debug("outbox closed, dropping send", "room", req.Room)
		return
	}
	select {
	case o.queue <- req:
	default:
		slog.Warn("outbox full, dropping send", "room", req.Room, "chars", len(req.Text))
	}
}

// Close stops the delivery goroutine after the queue drains.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()
		close(o.queue)
		<-o.done
	})
}

func (o *Outbox) deliver() {
	defer close(o.done)
	for req := range o.queue {
		if err := o.limiter.Wait(context.Background()); err != nil {
			return
		}
		o.sink.Submit(req)
	}
}

// LogSink is the null transport: it logs sends instead of delivering
// them. Used by headless runs and the doctor command.
type LogSink struct{}

func (LogSink) Submit(req SendRequest) {
	slog.Info("transport send", "room", req.Room, "reply_to", req.InReplyTo, "text", req.Text)
}
