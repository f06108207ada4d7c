// Package interactionlog decouples analytics writes from conversation turns.
package interactionlog

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/port"
	shared "github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize    = 256
	DefaultWriteTimeout = 5 * time.Second
)

// Options tunes an AsyncLog. Zero values take the defaults.
type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
}

// AsyncLog is a port.InteractionLog that queues records and writes them to the
// wrapped log from a single background worker, so records of one user land in
// the order they were appended. Append never blocks: a full queue drops the
// record and reports ErrQueueFull.
type AsyncLog struct {
	next         port.InteractionLog
	queue        chan *domain.InteractionRecord
	writeTimeout time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts the worker. Call Close to drain and stop it.
func New(next port.InteractionLog, opts Options, metrics *observability.Metrics, logger *zap.Logger) *AsyncLog {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	l := &AsyncLog{
		next:         next,
		queue:        make(chan *domain.InteractionRecord, opts.QueueSize),
		writeTimeout: opts.WriteTimeout,
		metrics:      metrics,
		logger:       logger,
		done:         make(chan struct{}),
	}
	go l.run()
	return l
}

// Append enqueues rec. ctx is not used for the write, which outlives the turn.
func (l *AsyncLog) Append(_ context.Context, rec *domain.InteractionRecord) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return l.dropped(rec)
	}
	select {
	case l.queue <- rec:
		return nil
	default:
		return l.dropped(rec)
	}
}

func (l *AsyncLog) dropped(rec *domain.InteractionRecord) error {
	l.metrics.IncrInteractionDropped()
	l.logger.Debug("interaction dropped", zap.String("session_id", rec.SessionID))
	return &shared.ErrQueueFull{Queue: "interactions", Capacity: cap(l.queue)}
}

// Pending is the number of queued, unwritten records.
func (l *AsyncLog) Pending() int {
	return len(l.queue)
}

// Close stops accepting records and waits for the queue to drain or ctx to end.
func (l *AsyncLog) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *AsyncLog) run() {
	defer close(l.done)

	for rec := range l.queue {
		l.write(rec)
	}
}

func (l *AsyncLog) write(rec *domain.InteractionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
	defer cancel()

	if err := l.next.Append(ctx, rec); err != nil {
		l.metrics.IncrInteractionError()
		l.logger.Warn("failed to store interaction",
			zap.String("session_id", rec.SessionID),
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
	}
}
