// Package loadgen drives a running stylist server with generated score jobs
// and checks that the resulting per-user rankings are consistent.
package loadgen

import (
	"errors"
	"runtime"
	"time"
)

// ErrInvalidConfig wraps configuration problems.
var ErrInvalidConfig = errors.New("invalid loadgen config")

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Users      int           // Number of distinct users
	Jobs       int           // Number of score jobs to submit
	Items      int           // Items per generated outfit
	Dimensions int           // Embedding dimensions
	TopN       int           // Ranking depth fetched per user
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the queue to drain
	Token      string        // Bearer token; empty sends X-User-ID instead
	OutputFile string        // Where generated jobs are saved; empty skips
}

// DefaultConfig returns a Config for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:9080",
		Users:      10,
		Jobs:       1000,
		Items:      3,
		Dimensions: 8,
		TopN:       20,
		Workers:    runtime.NumCPU() * 2,
		Timeout:    30 * time.Second,
		Settle:     30 * time.Second,
	}
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.Users < 1, c.Jobs < 1, c.Items < 1, c.Dimensions < 1, c.TopN < 1, c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("users, jobs, items, dimensions, top and workers must be positive"))
	}
	return nil
}

// Job is one generated score submission.
type Job struct {
	JobID    string    `json:"job_id"`
	UserID   string    `json:"user_id"`
	OutfitID string    `json:"outfit_id"`
	Items    []Feature `json:"items"`
}

// Feature is the wire form of an item feature.
type Feature struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
	Colors    []string  `json:"colors"`
}

// Entry is a ranked outfit as served by the API.
type Entry struct {
	Rank     int     `json:"rank"`
	OutfitID string  `json:"outfit_id"`
	Score    float64 `json:"score"`
}

// Stats holds run statistics.
type Stats struct {
	Generated      int
	Submitted      int
	Accepted       int
	Duplicate      int
	Backpressure   int
	Failed         int
	UsersVerified  int
	EntriesChecked int
	Duration       time.Duration
}
