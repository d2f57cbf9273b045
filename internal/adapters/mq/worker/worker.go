// Package worker scores queued outfit jobs and writes the results into the
// ranking store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/pkg/logger"
	"github.com/okian/stylist/pkg/metrics"
)

const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.ScoreJob

// Updater stores the latest score of an outfit in its owner's ranking.
type Updater interface {
	Put(ctx context.Context, userID, outfitID string, score float64) (bool, error)
}

// Scorer computes the compatibility of an outfit.
type Scorer interface {
	Score(ctx context.Context, items []model.ItemFeature) (model.CompatibilityResult, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes or it is told to stop.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	scorer  Scorer
	updater Updater
	name    string
	active  *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until the queue channel closes, ctx is done or
// Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "score job failed", logger.String("job_id", j.JobID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the job in flight.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: value semantics through the channel
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.scorer.Score(ctx, j.Items)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return fmt.Errorf("score outfit %s: %w", j.OutfitID, err)
	}
	metrics.RecordCompatibility("async", float64(time.Since(start).Microseconds())/1000, res.Score)

	updated, err := w.updater.Put(ctx, j.UserID, j.OutfitID, res.Score)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ranking_error")
		return fmt.Errorf("rank outfit %s: %w", j.OutfitID, err)
	}
	if updated {
		metrics.RecordRankingUpdate()
	}
	metrics.RecordJobProcessed()
	w.logger.Debug(ctx, "outfit scored",
		logger.String("job_id", j.JobID),
		logger.String("outfit_id", j.OutfitID),
		logger.Float64("score", res.Score),
	)
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count falls
// back to a small default.
func NewPool(workerCount int, q Queue, scorer Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, scorer, updater, wopts...)
		w.active = &p.active
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers busy with a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them. If
// ctx (or the pool timeout) expires first the workers are told to stop
// immediately.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-waitCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			if err := w.Shutdown(context.Background()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
