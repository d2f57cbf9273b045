package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then outfitID ASC (deterministic).
// "less" means ranks earlier, so an in-order walk yields the ranking from
// best to worst. Subtree sizes let Rank run in O(log n).

// scoreScale converts scores to fixed point. Compatibility scores are
// rounded to three decimals, so nine leaves ample headroom.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return scoreFP(math.MaxInt64)
	case math.IsInf(x, -1):
		return scoreFP(math.MinInt64)
	}
	scaled := x * scoreScale
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		// Rotate the higher priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes carry a score strictly greater than s.
// Such nodes form a prefix of the in-order walk.
func countAbove(n *node, s scoreFP) int {
	count := 0
	for n != nil {
		if n.score > s {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit outfits in rank order. Ranks use
// competition ranking: ties share a rank and the next distinct score skips
// ahead by the size of the tie.
func collectTopN(n *node, limit int, out *[]model.RankedOutfit) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		pos := len(*out)
		rank := pos + 1
		if pos > 0 && toFixedPoint((*out)[pos-1].Score) == n.score {
			rank = (*out)[pos-1].Rank
		}
		*out = append(*out, model.RankedOutfit{Rank: rank, OutfitID: n.id, Score: toFloat(n.score)})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// ranking is one user's treap plus an index of current scores.
type ranking struct {
	root *node
	byID map[string]scoreFP
}

// TreapStore implements Store with one treap per user.
type TreapStore struct {
	mu    sync.RWMutex
	users map[string]*ranking
	total int
	prio  *rand.Rand
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		users: make(map[string]*ranking),
		prio:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store.Put with O(log n) expected time.
func (s *TreapStore) Put(_ context.Context, userID, outfitID string, score float64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("put", float64(time.Since(start).Milliseconds()))
	}()

	ns := toFixedPoint(score)

	s.mu.Lock()
	r, ok := s.users[userID]
	if !ok {
		r = &ranking{byID: make(map[string]scoreFP)}
		s.users[userID] = r
	}
	if old, exists := r.byID[outfitID]; exists {
		if old == ns {
			s.mu.Unlock()
			return false, nil
		}
		r.root = deleteNode(r.root, outfitID, old)
	} else {
		s.total++
	}
	r.byID[outfitID] = ns
	r.root = insert(r.root, outfitID, ns, s.prio.Uint64())
	total := s.total
	s.mu.Unlock()

	metrics.UpdateRankedOutfits(total)
	return true, nil
}

// Rank returns the current competition rank and score of an outfit in O(log n).
func (s *TreapStore) Rank(_ context.Context, userID, outfitID string) (model.RankedOutfit, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("rank", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[userID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedOutfit{}, ErrNotFound
	}
	score, ok := r.byID[outfitID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedOutfit{}, ErrNotFound
	}
	return model.RankedOutfit{
		Rank:     countAbove(r.root, score) + 1,
		OutfitID: outfitID,
		Score:    toFloat(score),
	}, nil
}

// TopN returns the top n outfits of a user. An unknown user has an empty ranking.
func (s *TreapStore) TopN(_ context.Context, userID string, n int) ([]model.RankedOutfit, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("top", float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.users[userID]
	if !ok {
		return []model.RankedOutfit{}, nil
	}
	out := make([]model.RankedOutfit, 0, min(n, len(r.byID)))
	collectTopN(r.root, n, &out)
	return out, nil
}

// Remove drops an outfit. Removing the last outfit forgets the user.
func (s *TreapStore) Remove(_ context.Context, userID, outfitID string) error {
	s.mu.Lock()
	r, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	score, ok := r.byID[outfitID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	r.root = deleteNode(r.root, outfitID, score)
	delete(r.byID, outfitID)
	if len(r.byID) == 0 {
		delete(s.users, userID)
	}
	s.total--
	total := s.total
	s.mu.Unlock()

	metrics.UpdateRankedOutfits(total)
	return nil
}

// Count returns the number of outfits ranked for a user.
func (s *TreapStore) Count(_ context.Context, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.users[userID]; ok {
		return len(r.byID)
	}
	return 0
}

// Total returns the number of outfits ranked across all users.
func (s *TreapStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
