package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/stylist/pkg/logger"
)

// Run generates jobs, submits them, waits for the pipeline to drain and
// verifies every user's ranking.
func Run(ctx context.Context, cfg Config, seed uint64) (Stats, error) {
	var stats Stats
	if err := cfg.validate(); err != nil {
		return stats, err
	}
	start := time.Now()
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("jobs", cfg.Jobs))

	c := newClient(cfg)
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if status != http.StatusOK {
		return stats, fmt.Errorf("service health check failed with status %d", status)
	}

	jobs := Generate(cfg, seed)
	stats.Generated = len(jobs)
	if cfg.OutputFile != "" {
		if err := saveJobs(cfg.OutputFile, jobs); err != nil {
			log.Warn(ctx, "failed to save jobs", logger.Error(err))
		}
	}

	Submit(ctx, cfg, jobs, &stats)

	if err := c.waitForRanked(ctx, stats.Accepted, cfg.Settle); err != nil {
		return stats, err
	}

	users := make([]string, 0, cfg.Users)
	for _, j := range jobs {
		if !slices.Contains(users, j.UserID) {
			users = append(users, j.UserID)
		}
	}
	if err := Verify(ctx, cfg, users, &stats); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load run completed",
		logger.Int("usersVerified", stats.UsersVerified),
		logger.Int("entriesChecked", stats.EntriesChecked),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func saveJobs(path string, jobs []Job) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
