// Package service wires the compatibility engine, the wardrobe sources and
// the asynchronous ranking pipeline into the operations the HTTP API and
// the CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/stylist/internal/adapters/mq/queue"
	"github.com/okian/stylist/internal/adapters/mq/worker"
	"github.com/okian/stylist/internal/adapters/repository"
	"github.com/okian/stylist/internal/adapters/wardrobe"
	"github.com/okian/stylist/internal/domain/dedupe"
	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/internal/domain/occasion"
	"github.com/okian/stylist/internal/domain/recommend"
	"github.com/okian/stylist/internal/domain/scoring"
	"github.com/okian/stylist/internal/domain/stats"
	"github.com/okian/stylist/pkg/logger"
	"github.com/okian/stylist/pkg/metrics"
)

// Service implements the API dependencies for the stylist engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	ranking  *repository.TreapStore
	deduper  dedupe.Deduper
	jobs     *queue.InMemoryQueue
	pool     *worker.Pool
	scorer   scoring.Scorer
	matcher  *occasion.Matcher
	source   wardrobe.Source
	cancelFn context.CancelFunc

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	batchConcurrency int
	matchSeed        int64
	matchLimit       int

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration. Without WithSource
// it reads from an empty in-memory wardrobe.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        10_000,
		dedupeSize:       100_000,
		batchConcurrency: runtime.NumCPU(),
		matchLimit:       occasion.DefaultLimit,
		scorer:           scoring.NewCompatibilityScorer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = wardrobe.NewMemorySource()
	}
	matcherOpts := []occasion.Option{occasion.WithDefaultLimit(s.matchLimit)}
	if s.matchSeed != 0 {
		matcherOpts = append(matcherOpts, occasion.WithSeed(s.matchSeed))
	}
	s.matcher = occasion.NewMatcher(matcherOpts...)
	return s
}

// Start initializes the ranking pipeline and starts the worker pool. The
// pool outlives ctx; it runs until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting stylist service...")

	s.ranking = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelFn = cancel
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.scorer, s.ranking, worker.WithLogger(s.logger))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "stylist service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued jobs and shuts the worker pool down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping stylist service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.cancelFn()

	s.started = false
	s.logger.Info(ctx, "stylist service stopped")
}

// ScoreOutfit scores items synchronously.
func (s *Service) ScoreOutfit(ctx context.Context, items []model.ItemFeature) (model.CompatibilityResult, error) {
	return s.score(ctx, "sync", items)
}

// ScoreSavedOutfit scores one of the user's saved outfits.
func (s *Service) ScoreSavedOutfit(ctx context.Context, userID, outfitID string) (model.CompatibilityResult, error) {
	items, err := wardrobe.OutfitFeatures(ctx, s.source, userID, outfitID)
	if err != nil {
		return model.CompatibilityResult{}, err
	}
	return s.score(ctx, "sync", items)
}

// ScoreBatch scores outfits concurrently. Results keep the input order;
// the first failure cancels the rest and is returned.
func (s *Service) ScoreBatch(ctx context.Context, outfits []model.OutfitFeatures) ([]model.BatchResult, error) {
	metrics.RecordBatchSize(len(outfits))
	out := make([]model.BatchResult, len(outfits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, o := range outfits {
		g.Go(func() error {
			res, err := s.score(gctx, "batch", o.Items)
			if err != nil {
				return fmt.Errorf("outfit %s: %w", o.ID, err)
			}
			out[i] = model.BatchResult{ID: o.ID, CompatibilityResult: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) score(ctx context.Context, mode string, items []model.ItemFeature) (model.CompatibilityResult, error) {
	start := time.Now()
	res, err := s.scorer.Score(ctx, items)
	if err != nil {
		metrics.RecordEngineError(errorKind(err))
		return model.CompatibilityResult{}, err
	}
	metrics.RecordCompatibility(mode, float64(time.Since(start).Microseconds())/1000, res.Score)
	return res, nil
}

// errorKind names an engine error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrFeatureFormat):
		return "invalid_feature"
	case errors.Is(err, model.ErrDegenerateEmbedding):
		return "degenerate_embedding"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// SubmitScoreJob enqueues an outfit for asynchronous scoring. Jobs are
// idempotent on JobID; a missing id is generated. When the job carries no
// items they are resolved from the user's saved outfit.
func (s *Service) SubmitScoreJob(ctx context.Context, job model.ScoreJob) (model.Submission, error) {
	s.mu.RLock()
	started, seen, jobs := s.started, s.deduper, s.jobs
	s.mu.RUnlock()
	if !started {
		return model.Submission{}, ErrNotStarted
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	sub := model.Submission{JobID: job.JobID}

	if len(job.Items) == 0 {
		items, err := wardrobe.OutfitFeatures(ctx, s.source, job.UserID, job.OutfitID)
		if err != nil {
			return sub, err
		}
		job.Items = items
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	if seen.SeenAndRecord(ctx, job.JobID) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate score job, skipping", logger.String("job_id", job.JobID))
		sub.Duplicate = true
		return sub, nil
	}

	if !jobs.Enqueue(ctx, job) {
		// Let the client retry the same id.
		seen.Unrecord(ctx, job.JobID)
		return sub, ErrBackpressure
	}
	metrics.RecordJobSubmitted()
	sub.Accepted = true
	return sub, nil
}

// TopOutfits returns the user's n best scored outfits.
func (s *Service) TopOutfits(ctx context.Context, userID string, n int) ([]model.RankedOutfit, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, userID, n)
}

// OutfitRank returns an outfit's position in its owner's ranking.
func (s *Service) OutfitRank(ctx context.Context, userID, outfitID string) (model.RankedOutfit, error) {
	store, err := s.store()
	if err != nil {
		return model.RankedOutfit{}, err
	}
	return store.Rank(ctx, userID, outfitID)
}

func (s *Service) store() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ranking, nil
}

// MatchOccasion picks saved outfits suitable for an occasion. A
// non-positive limit uses the matcher default.
func (s *Service) MatchOccasion(ctx context.Context, userID string, q model.OccasionQuery, limit int) ([]model.OutfitCandidate, error) {
	outfits, err := s.source.Outfits(ctx, userID)
	if err != nil {
		return nil, err
	}
	picked := s.matcher.Match(q, outfits, limit)
	metrics.RecordOccasionMatches(len(picked))
	return picked, nil
}

// Recommend builds outfit ideas and acquisition suggestions for the user.
func (s *Service) Recommend(ctx context.Context, userID string, limit int, profile model.Profile) (model.Suggestions, error) {
	snap, err := s.source.Snapshot(ctx, userID)
	if err != nil {
		return model.Suggestions{}, err
	}
	if profile.Username == "" {
		profile.Username = userID
	}
	out := recommend.Recommend(snap, limit, profile)
	metrics.RecordRecommendations("outfit_idea", len(out.NewOutfitIdeas))
	metrics.RecordRecommendations("acquisition", len(out.ItemsToAcquire))
	return out, nil
}

// Summary returns the wardrobe overview.
func (s *Service) Summary(ctx context.Context, userID string) (stats.Summary, error) {
	snap, err := s.source.Snapshot(ctx, userID)
	if err != nil {
		return stats.Summary{}, err
	}
	outfits, err := s.source.Outfits(ctx, userID)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(snap, len(outfits)), nil
}

// CategoryUsage returns the share of each category in the wardrobe.
func (s *Service) CategoryUsage(ctx context.Context, userID string) ([]stats.CategoryUsage, error) {
	snap, err := s.source.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.Usage(snap), nil
}

// WearFrequency lists items by how often they were worn.
func (s *Service) WearFrequency(ctx context.Context, userID string) ([]stats.ItemWearFrequency, error) {
	snap, err := s.source.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.WearFrequency(snap), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"batchConcurrency": s.batchConcurrency,
	}
	if s.started {
		queueLen := s.jobs.Len(context.Background())
		ranked := s.ranking.Total()
		out["queueLength"] = queueLen
		out["activeWorkers"] = s.pool.Active()
		out["rankedOutfits"] = ranked
		out["seenJobs"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRankedOutfits(ranked)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return out
}
