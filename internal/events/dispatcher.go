package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrDispatcherClosed is returned by Enqueue after Shutdown has begun.
	ErrDispatcherClosed = errors.New("event dispatcher closed")
	// ErrQueueFull is returned when the dispatcher cannot accept more events.
	ErrQueueFull = errors.New("event queue full")
)

const publishTimeout = 5 * time.Second

// DispatcherConfig controls the concurrency characteristics of the dispatcher.
type DispatcherConfig struct {
	QueueSize int
	Workers   int
}

// Dispatcher publishes events in the background so request handlers never
// wait on the broker.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher starts the worker pool.
func NewDispatcher(publisher Publisher, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		publisher: publisher,
		logger:    logger,
		jobs:      make(chan Event, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue schedules the event for publishing without blocking.
func (d *Dispatcher) Enqueue(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting events and waits for queued ones to be published.
// When ctx expires first, in-flight publishes are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	case <-done:
		d.cancel()
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for event := range d.jobs {
		if d.ctx.Err() != nil {
			d.logger.Warn("dropping friend event after shutdown", "type", string(event.Type), "from", event.From, "to", event.To)
			continue
		}
		d.publish(event)
	}
}

func (d *Dispatcher) publish(event Event) {
	if d.publisher == nil {
		d.logger.Error("event dispatcher missing publisher", "type", string(event.Type))
		return
	}

	ctx, cancel := context.WithTimeout(d.ctx, publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Error("publish friend event", "type", string(event.Type), "from", event.From, "to", event.To, "error", err)
	}
}
