package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const TransactionSweepJobKind = "gnap.transaction_sweep"

const defaultSweepIdleDelay = 250 * time.Millisecond

// ErrQueueEmpty signals a dequeue against an empty queue.
var ErrQueueEmpty = errors.New("core: job queue is empty")

// TransactionSweeper drains sweep jobs and removes terminal transaction
// mirrors from the durable store. Cache entries are left to expire on
// their own TTL.
type TransactionSweeper struct {
	store    EntityStore
	dequeuer JobDequeuer
	logger   Logger
}

func NewTransactionSweeper(store EntityStore, dequeuer JobDequeuer, logger Logger) *TransactionSweeper {
	return &TransactionSweeper{
		store:    store,
		dequeuer: dequeuer,
		logger:   logger,
	}
}

// Run drains the queue until the context is cancelled. An empty queue is
// not an error; the sweeper idles and tries again.
func (w *TransactionSweeper) Run(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("core: transaction sweeper is not configured")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := w.SweepOne(ctx); err != nil {
			if errors.Is(err, ErrQueueEmpty) {
				if waitErr := waitWithContext(ctx, defaultSweepIdleDelay); waitErr != nil {
					return waitErr
				}
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logSweepError(ctx, err)
		}
	}
}

// SweepOne processes a single delivery. Deliveries with no usable
// transaction id are dead-lettered; store failures are nacked for retry.
func (w *TransactionSweeper) SweepOne(ctx context.Context) error {
	if w == nil || w.dequeuer == nil {
		return fmt.Errorf("core: transaction sweeper requires a dequeuer")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}

	msg := delivery.Message()
	txID := sweepTransactionID(msg)
	if txID == "" {
		_ = delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     "missing tx_id parameter",
		})
		return fmt.Errorf("core: sweep job carries no transaction id")
	}

	if w.store != nil {
		if deleteErr := w.store.Delete(ctx, CollectionTransactions, txID); deleteErr != nil {
			_ = delivery.Nack(ctx, JobNackOptions{
				Requeue: true,
				Delay:   defaultSweepIdleDelay,
				Reason:  deleteErr.Error(),
			})
			return NewStoreError("core: transaction sweep delete failed", deleteErr)
		}
	}
	return delivery.Ack(ctx)
}

func (w *TransactionSweeper) logSweepError(ctx context.Context, err error) {
	if w == nil || w.logger == nil || err == nil {
		return
	}
	logger := w.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Error("transaction sweep failed", "error", err.Error())
}

func sweepTransactionID(msg *JobExecutionMessage) string {
	if msg == nil || msg.Kind != TransactionSweepJobKind {
		return ""
	}
	raw, ok := msg.Parameters["tx_id"]
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MemoryJobQueue is an in-process queue satisfying both ends of the job
// contract. Suitable for single-process deployments and tests.
type MemoryJobQueue struct {
	mu      sync.Mutex
	pending []*JobExecutionMessage
	seen    map[string]struct{}
}

func NewMemoryJobQueue() *MemoryJobQueue {
	return &MemoryJobQueue{
		seen: make(map[string]struct{}),
	}
}

func (q *MemoryJobQueue) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if q == nil {
		return fmt.Errorf("core: job queue is not configured")
	}
	if msg == nil {
		return fmt.Errorf("core: job message is required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	key := strings.TrimSpace(msg.IdempotencyKey)
	if key != "" {
		if _, dup := q.seen[key]; dup {
			return nil
		}
		q.seen[key] = struct{}{}
	}
	q.pending = append(q.pending, msg)
	return nil
}

func (q *MemoryJobQueue) Dequeue(_ context.Context) (JobDelivery, error) {
	if q == nil {
		return nil, fmt.Errorf("core: job queue is not configured")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, ErrQueueEmpty
	}
	msg := q.pending[0]
	q.pending = q.pending[1:]
	return &memoryJobDelivery{queue: q, msg: msg}, nil
}

func (q *MemoryJobQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

type memoryJobDelivery struct {
	queue *MemoryJobQueue
	msg   *JobExecutionMessage
	once  sync.Once
}

func (d *memoryJobDelivery) Message() *JobExecutionMessage {
	if d == nil {
		return nil
	}
	return d.msg
}

func (d *memoryJobDelivery) Ack(context.Context) error {
	return nil
}

func (d *memoryJobDelivery) Nack(_ context.Context, opts JobNackOptions) error {
	if d == nil || d.queue == nil {
		return nil
	}
	if opts.DeadLetter || !opts.Requeue {
		return nil
	}
	d.once.Do(func() {
		d.queue.mu.Lock()
		d.queue.pending = append(d.queue.pending, d.msg)
		d.queue.mu.Unlock()
	})
	return nil
}

var (
	_ JobEnqueuer = (*MemoryJobQueue)(nil)
	_ JobDequeuer = (*MemoryJobQueue)(nil)
	_ JobDelivery = (*memoryJobDelivery)(nil)
)
