package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/stylist/pkg/logger"
)

const userHeader = "X-User-ID"

// client wraps http.Client and attaches the caller identity.
type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient(cfg Config) *client {
	return &client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
	}
}

func (c *client) do(ctx context.Context, method, path, userID string, body any) (int, []byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeBackpressure
	outcomeFailed
)

type submitBody struct {
	JobID string    `json:"job_id"`
	Items []Feature `json:"items"`
}

func (c *client) submit(ctx context.Context, job Job) outcome {
	status, _, err := c.do(ctx, http.MethodPost, "/v1/outfits/"+job.OutfitID+"/score", job.UserID,
		submitBody{JobID: job.JobID, Items: job.Items})
	if err != nil {
		return outcomeFailed
	}
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeBackpressure
	default:
		return outcomeFailed
	}
}

// Submit posts jobs with cfg.Workers concurrent senders and fills the
// submission counters of stats.
func Submit(ctx context.Context, cfg Config, jobs []Job, stats *Stats) {
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting score jobs", logger.Int("jobs", len(jobs)), logger.Int("workers", cfg.Workers))

	c := newClient(cfg)
	var counts [4]atomic.Int64
	var submitted atomic.Int64

	ch := make(chan Job, cfg.Workers*2)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range ch {
				counts[c.submit(ctx, job)].Add(1)
				if n := submitted.Add(1); n%1000 == 0 {
					log.Debug(ctx, "progress", logger.Int("submitted", int(n)))
				}
			}
		}()
	}
	func() {
		defer close(ch)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case ch <- job:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(counts[outcomeAccepted].Load())
	stats.Duplicate = int(counts[outcomeDuplicate].Load())
	stats.Backpressure = int(counts[outcomeBackpressure].Load())
	stats.Failed = int(counts[outcomeFailed].Load())
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("failed", stats.Failed))
}

// waitForRanked polls /stats until at least want outfits are ranked.
func (c *client) waitForRanked(ctx context.Context, want int, settle time.Duration) error {
	deadline := time.Now().Add(settle)
	for {
		status, body, err := c.do(ctx, http.MethodGet, "/stats", "", nil)
		if err == nil && status == http.StatusOK {
			var s struct {
				RankedOutfits int `json:"rankedOutfits"`
				QueueLength   int `json:"queueLength"`
			}
			if json.Unmarshal(body, &s) == nil && s.RankedOutfits >= want && s.QueueLength == 0 {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("ranking did not settle within %s", settle)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
