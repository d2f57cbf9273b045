package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// ErrInconsistent reports a ranking that breaks ordering or rank rules.
var ErrInconsistent = errors.New("inconsistent ranking")

// CheckEntries verifies that entries are ordered by score descending then
// outfit id ascending, and that ranks follow competition ranking.
func CheckEntries(entries []Entry) error {
	for i, e := range entries {
		want := i + 1
		if i > 0 {
			prev := entries[i-1]
			if e.Score > prev.Score || (e.Score == prev.Score && e.OutfitID <= prev.OutfitID) {
				return fmt.Errorf("%w: %s after %s", ErrInconsistent, e.OutfitID, prev.OutfitID)
			}
			if e.Score == prev.Score {
				want = prev.Rank
			}
		}
		if e.Rank != want {
			return fmt.Errorf("%w: %s has rank %d, want %d", ErrInconsistent, e.OutfitID, e.Rank, want)
		}
	}
	return nil
}

// Verify fetches each user's top outfits and checks them.
func Verify(ctx context.Context, cfg Config, users []string, stats *Stats) error {
	c := newClient(cfg)
	var errs []error
	for _, user := range users {
		status, body, err := c.do(ctx, http.MethodGet, "/v1/outfits/top?limit="+strconv.Itoa(cfg.TopN), user, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", user, err))
			continue
		}
		if status != http.StatusOK {
			errs = append(errs, fmt.Errorf("user %s: status %d", user, status))
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			errs = append(errs, fmt.Errorf("user %s: decode: %w", user, err))
			continue
		}
		if err := CheckEntries(entries); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", user, err))
			continue
		}
		stats.UsersVerified++
		stats.EntriesChecked += len(entries)
	}
	return errors.Join(errs...)
}
