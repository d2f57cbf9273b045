package wardrobe

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/smartystreets/goconvey/convey"
)

func TestEmbeddingConversion(t *testing.T) {
	convey.Convey("Stored vectors widen to float64", t, func() {
		convey.So(embedding(nil), convey.ShouldBeNil)

		v := pgvector.NewVector([]float32{0.5, -1, 2})
		convey.So(embedding(&v), convey.ShouldResemble, []float64{0.5, -1, 2})

		empty := pgvector.NewVector(nil)
		convey.So(embedding(&empty), convey.ShouldBeNil)
	})
}

func TestUnavailableWrapping(t *testing.T) {
	convey.Convey("Driver errors are classified", t, func() {
		convey.So(errors.Is(unavailable("q", errors.New("boom")), ErrUnavailable), convey.ShouldBeTrue)
		convey.So(errors.Is(unavailable("q", context.Canceled), ErrUnavailable), convey.ShouldBeFalse)
		convey.So(errors.Is(unavailable("q", context.Canceled), context.Canceled), convey.ShouldBeTrue)
	})
}

// TestPostgresSource runs against a real database when
// STYLIST_TEST_DATABASE_URL points at one with the vector extension available.
func TestPostgresSource(t *testing.T) {
	dsn := os.Getenv("STYLIST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STYLIST_TEST_DATABASE_URL not set")
	}

	convey.Convey("Given a migrated database with one wardrobe", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		src, err := NewPostgresSource(ctx, dsn)
		convey.So(err, convey.ShouldBeNil)
		defer src.Close()
		convey.So(src.Migrate(ctx), convey.ShouldBeNil)

		user := "pgtest-" + time.Now().Format("150405.000000")
		_, err = src.db.Exec(ctx, `INSERT INTO wardrobe_items (id, user_id, name, category, times_worn, embedding, colors)
VALUES ('a', $1, 'Shirt', 'tops', 3, $2, ARRAY['#FFFFFF']), ('b', $1, 'Jeans', 'bottoms', 1, NULL, NULL)`,
			user, pgvector.NewVector([]float32{1, 0, 0}))
		convey.So(err, convey.ShouldBeNil)
		_, err = src.db.Exec(ctx, `INSERT INTO outfits (id, user_id, name, tags) VALUES ('o1', $1, 'Office', ARRAY['work'])`, user)
		convey.So(err, convey.ShouldBeNil)
		_, err = src.db.Exec(ctx, `INSERT INTO outfit_items (user_id, outfit_id, item_id, position) VALUES ($1, 'o1', 'b', 1), ($1, 'o1', 'a', 0)`, user)
		convey.So(err, convey.ShouldBeNil)

		defer func() {
			_, _ = src.db.Exec(context.Background(), `DELETE FROM outfits WHERE user_id = $1`, user)
			_, _ = src.db.Exec(context.Background(), `DELETE FROM wardrobe_items WHERE user_id = $1`, user)
		}()

		snap, err := src.Snapshot(ctx, user)
		convey.So(err, convey.ShouldBeNil)
		convey.So(snap.Items, convey.ShouldHaveLength, 2)

		outfits, err := src.Outfits(ctx, user)
		convey.So(err, convey.ShouldBeNil)
		convey.So(outfits, convey.ShouldHaveLength, 1)
		convey.So(outfits[0].ItemIDs, convey.ShouldResemble, []string{"a", "b"})

		feats, err := src.Features(ctx, user, []string{"b", "a"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(feats[0].Embedding, convey.ShouldBeNil)
		convey.So(feats[1].Embedding, convey.ShouldResemble, []float64{1, 0, 0})

		_, err = src.Features(ctx, user, []string{"zzz"})
		convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
	})
}
