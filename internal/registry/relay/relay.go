package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"podium/internal/registry/metrics"
	"podium/internal/registry/models"
)

// OutboxStore exposes committed notifications that were not yet published.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error)
	MarkPublished(ctx context.Context, seq uint64, publishedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)
}

// Publisher delivers one notification. It must not return before the event
// is durably handed off.
type Publisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = 200 * time.Millisecond
	drainTimeout        = 10 * time.Second
)

// Worker moves notifications from the outbox to a Publisher in sequence
// order. A batch stops at the first failure so a later event is never
// published ahead of an earlier one; the failed event is retried on the next
// poll. Delivery is at-least-once.
type Worker struct {
	store        OutboxStore
	publisher    Publisher
	batchSize    int
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Worker)

// WithBatchSize sets the maximum number of events fetched per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithClock overrides the time recorded as publication time.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func New(store OutboxStore, publisher Publisher, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:        store,
		publisher:    publisher,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			if _, err := w.PollOnce(w.ctx); err != nil {
				w.logError("relay poll failed", "error", err)
			}
		}
	}
}

// PollOnce publishes up to one batch and returns how many events were
// published and marked.
func (w *Worker) PollOnce(ctx context.Context) (int, error) {
	events, err := w.store.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		w.incFailures()
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	batchID := uuid.NewString()
	published := 0
	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.incFailures()
			w.countPublished(published)
			return published, fmt.Errorf("publish event %d (batch %s): %w", event.Seq, batchID, err)
		}
		// A publish that is not marked is repeated on the next poll.
		if err := w.store.MarkPublished(ctx, event.Seq, w.now()); err != nil {
			w.incFailures()
			w.countPublished(published)
			return published, fmt.Errorf("mark event %d published (batch %s): %w", event.Seq, batchID, err)
		}
		published++
	}

	w.countPublished(published)
	if w.logger != nil {
		w.logger.Debug("relay batch published",
			"batch_id", batchID,
			"count", published,
			"first_seq", events[0].Seq,
			"last_seq", events[len(events)-1].Seq,
		)
	}
	return published, nil
}

// drain keeps publishing after shutdown was requested until the outbox is
// empty, a poll fails, or drainTimeout elapses.
func (w *Worker) drain() {
	if w.logger != nil {
		w.logger.Info("draining registry relay")
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		n, err := w.PollOnce(ctx)
		if err != nil {
			w.logError("relay drain stopped", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}
}

// Stop cancels the polling loop and waits for the drain to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateMetrics refreshes the pending depth gauge.
func (w *Worker) UpdateMetrics(ctx context.Context) error {
	if w.metrics == nil {
		return nil
	}
	count, err := w.store.CountPending(ctx)
	if err != nil {
		return err
	}
	w.metrics.SetOutboxPending(int(count))
	return nil
}

func (w *Worker) countPublished(n int) {
	if w.metrics != nil && n > 0 {
		w.metrics.IncrementEventsPublished(n)
	}
}

func (w *Worker) incFailures() {
	if w.metrics != nil {
		w.metrics.IncrementPublishFailures()
	}
}

func (w *Worker) logError(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
