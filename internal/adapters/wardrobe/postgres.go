package wardrobe

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/pkg/metrics"
)

// Schema creates the tables PostgresSource reads.
//
//go:embed schema.sql
var Schema string

const (
	snapshotQuery = `SELECT id, name, COALESCE(category, ''), COALESCE(season, ''), COALESCE(tags, '{}'),
       favorite, times_worn, date_added, last_worn, embedding, COALESCE(colors, '{}')
  FROM wardrobe_items
 WHERE user_id = $1
 ORDER BY date_added, id`

	outfitsQuery = `SELECT o.id, o.name, COALESCE(o.tags, '{}'),
       COALESCE(array_agg(oi.item_id ORDER BY oi.position, oi.item_id) FILTER (WHERE oi.item_id IS NOT NULL), '{}')
  FROM outfits o
  LEFT JOIN outfit_items oi ON oi.user_id = o.user_id AND oi.outfit_id = o.id
 WHERE o.user_id = $1
 GROUP BY o.id, o.name, o.tags, o.created_at
 ORDER BY o.created_at, o.id`

	featuresQuery = `SELECT id, embedding, COALESCE(colors, '{}')
  FROM wardrobe_items
 WHERE user_id = $1 AND id = ANY($2)`
)

// PostgresSource reads wardrobes from Postgres with the pgvector extension.
type PostgresSource struct {
	db *pgxpool.Pool
}

// NewPostgresSource connects to dsn and verifies the connection.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, errors.New("postgres source: dsn cannot be empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{db: pool}, nil
}

// Migrate applies Schema. Statements are idempotent.
func (p *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (p *PostgresSource) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close releases the pool.
func (p *PostgresSource) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

// Snapshot implements Source.
func (p *PostgresSource) Snapshot(ctx context.Context, userID string) (snap model.WardrobeSnapshot, err error) {
	defer observe("snapshot", time.Now(), &err)

	rows, err := p.db.Query(ctx, snapshotQuery, userID)
	if err != nil {
		return model.WardrobeSnapshot{}, unavailable("snapshot query", err)
	}
	defer rows.Close()

	snap = model.WardrobeSnapshot{UserID: userID, Items: []model.WardrobeItem{}}
	for rows.Next() {
		var (
			it  model.WardrobeItem
			vec *pgvector.Vector
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Season, &it.Tags,
			&it.Favorite, &it.TimesWorn, &it.DateAdded, &it.LastWorn, &vec, &it.Colors); err != nil {
			return model.WardrobeSnapshot{}, unavailable("scan wardrobe item", err)
		}
		it.Embedding = embedding(vec)
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return model.WardrobeSnapshot{}, unavailable("iterate wardrobe items", err)
	}
	return snap, nil
}

// Outfits implements Source.
func (p *PostgresSource) Outfits(ctx context.Context, userID string) (out []model.OutfitCandidate, err error) {
	defer observe("outfits", time.Now(), &err)

	rows, err := p.db.Query(ctx, outfitsQuery, userID)
	if err != nil {
		return nil, unavailable("outfits query", err)
	}
	defer rows.Close()

	out = []model.OutfitCandidate{}
	for rows.Next() {
		var o model.OutfitCandidate
		if err := rows.Scan(&o.ID, &o.Name, &o.Tags, &o.ItemIDs); err != nil {
			return nil, unavailable("scan outfit", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate outfits", err)
	}
	return out, nil
}

// Features implements Source.
func (p *PostgresSource) Features(ctx context.Context, userID string, itemIDs []string) (out []model.ItemFeature, err error) {
	defer observe("features", time.Now(), &err)

	rows, err := p.db.Query(ctx, featuresQuery, userID, itemIDs)
	if err != nil {
		return nil, unavailable("features query", err)
	}
	defer rows.Close()

	byID := make(map[string]model.ItemFeature, len(itemIDs))
	for rows.Next() {
		var (
			f   model.ItemFeature
			vec *pgvector.Vector
		)
		if err := rows.Scan(&f.ID, &vec, &f.Colors); err != nil {
			return nil, unavailable("scan feature", err)
		}
		f.Embedding = embedding(vec)
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate features", err)
	}

	out = make([]model.ItemFeature, 0, len(itemIDs))
	for _, id := range itemIDs {
		f, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %q", ErrNotFound, id)
		}
		out = append(out, f)
	}
	return out, nil
}

// embedding widens a stored vector. NULL columns yield no embedding.
func embedding(vec *pgvector.Vector) []float64 {
	if vec == nil {
		return nil
	}
	raw := vec.Slice()
	if len(raw) == 0 {
		return nil
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

// unavailable wraps driver failures in ErrUnavailable.
// Cancellation is passed through untouched.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func observe(op string, start time.Time, err *error) {
	outcome := "ok"
	switch {
	case *err == nil:
	case errors.Is(*err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordSourceLatency("postgres_"+op, outcome, float64(time.Since(start).Milliseconds()))
}
