package service

import (
	"github.com/okian/stylist/internal/adapters/wardrobe"
	"github.com/okian/stylist/internal/domain/scoring"
	"github.com/okian/stylist/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the score job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithBatchConcurrency bounds parallel scoring inside ScoreBatch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithMatchSeed seeds the occasion matcher. Zero keeps a clock seed.
func WithMatchSeed(seed int64) Option {
	return func(s *Service) {
		s.matchSeed = seed
	}
}

// WithMatchLimit sets the default number of outfits MatchOccasion returns.
func WithMatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.matchLimit = n
		}
	}
}

// WithSource sets where wardrobes are read from.
func WithSource(src wardrobe.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithScorer replaces the compatibility scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
