package wardrobe

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/goccy/go-json"

	"github.com/okian/stylist/internal/domain/model"
)

// Wardrobe is the fixture form of a single user's data.
type Wardrobe struct {
	UserID  string                  `json:"user_id"`
	Items   []model.WardrobeItem    `json:"items"`
	Outfits []model.OutfitCandidate `json:"outfits,omitempty"`
}

// Fixture is the document LoadFile reads.
type Fixture struct {
	Wardrobes []Wardrobe `json:"wardrobes"`
}

// MemorySource is a thread-safe in-memory Source.
type MemorySource struct {
	mu    sync.RWMutex
	users map[string]*Wardrobe
	order []string
}

// NewMemorySource creates a source holding the given wardrobes.
func NewMemorySource(wardrobes ...Wardrobe) *MemorySource {
	m := &MemorySource{users: make(map[string]*Wardrobe)}
	for _, w := range wardrobes {
		m.Put(w)
	}
	return m
}

// LoadFile reads a JSON fixture from path.
func LoadFile(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes a JSON fixture.
func Load(r io.Reader) (*MemorySource, error) {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for i, w := range fx.Wardrobes {
		if w.UserID == "" {
			return nil, fmt.Errorf("decode fixture: wardrobe %d has no user_id", i)
		}
	}
	return NewMemorySource(fx.Wardrobes...), nil
}

// Put replaces a user's wardrobe.
func (m *MemorySource) Put(w Wardrobe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[w.UserID]; !ok {
		m.order = append(m.order, w.UserID)
	}
	cp := Wardrobe{
		UserID:  w.UserID,
		Items:   slices.Clone(w.Items),
		Outfits: slices.Clone(w.Outfits),
	}
	m.users[w.UserID] = &cp
}

// Users returns the known user ids in insertion order.
func (m *MemorySource) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Snapshot implements Source.
func (m *MemorySource) Snapshot(ctx context.Context, userID string) (model.WardrobeSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.WardrobeSnapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := model.WardrobeSnapshot{UserID: userID, Items: []model.WardrobeItem{}}
	if w, ok := m.users[userID]; ok {
		snap.Items = slices.Clone(w.Items)
	}
	return snap, nil
}

// Outfits implements Source.
func (m *MemorySource) Outfits(ctx context.Context, userID string) ([]model.OutfitCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.users[userID]; ok {
		return slices.Clone(w.Outfits), nil
	}
	return []model.OutfitCandidate{}, nil
}

// Features implements Source.
func (m *MemorySource) Features(ctx context.Context, userID string, itemIDs []string) ([]model.ItemFeature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, userID)
	}
	byID := make(map[string]model.WardrobeItem, len(w.Items))
	for _, it := range w.Items {
		byID[it.ID] = it
	}
	out := make([]model.ItemFeature, 0, len(itemIDs))
	for _, id := range itemIDs {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %q", ErrNotFound, id)
		}
		out = append(out, it.Feature())
	}
	return out, nil
}

// OutfitFeatures resolves a saved outfit into the features of its items.
func OutfitFeatures(ctx context.Context, src Source, userID, outfitID string) ([]model.ItemFeature, error) {
	outfits, err := src.Outfits(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range outfits {
		if o.ID == outfitID {
			return src.Features(ctx, userID, o.ItemIDs)
		}
	}
	return nil, fmt.Errorf("%w: outfit %q", ErrNotFound, outfitID)
}
