package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/stylist/internal/adapters/http/api"
	"github.com/okian/stylist/internal/adapters/wardrobe"
	"github.com/okian/stylist/internal/config"
	"github.com/okian/stylist/internal/domain/model"
)

const fixture = `{
  "wardrobes": [
    {
      "user_id": "ana",
      "items": [
        {"id": "i1", "name": "White shirt", "category": "Tops", "times_worn": 4, "embedding": [1, 0, 0], "colors": ["#FFFFFF"]},
        {"id": "i2", "name": "Jeans", "category": "Bottoms", "times_worn": 1, "embedding": [0.9, 0.1, 0], "colors": ["#1F3A5F"]}
      ],
      "outfits": [
        {"id": "o1", "name": "Casual Friday", "item_ids": ["i1", "i2"]},
        {"id": "o2", "name": "Wedding guest", "item_ids": ["i1"]}
      ]
    },
    {"user_id": "ben", "items": []}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	convey.Convey("Given the score command", t, func() {
		wardrobePath := writeFile(t, "wardrobe.json", fixture)

		convey.Convey("When scoring items from a file", func() {
			items := writeFile(t, "items.json", `{"items":[
				{"id":"a","embedding":[1,1,0],"colors":["#101010"]},
				{"id":"b","embedding":[2,2,0],"colors":["#111111"]}]}`)
			out, err := run("score", "--file", items)

			convey.Convey("Then the result is printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var res model.CompatibilityResult
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res.StyleCohesion, convey.ShouldEqual, 1.0)
				convey.So(res.Score, convey.ShouldBeBetweenOrEqual, 0.0, 1.0)
			})
		})

		convey.Convey("When scoring a saved outfit", func() {
			out, err := run("score", "-w", wardrobePath, "-u", "ana", "--outfit", "o1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "compatibility_score")
		})

		convey.Convey("When the saved outfit does not exist", func() {
			_, err := run("score", "-w", wardrobePath, "-u", "ana", "--outfit", "nope")
			convey.So(errors.Is(err, wardrobe.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("When no input is named", func() {
			_, err := run("score")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestWardrobeCommands(t *testing.T) {
	convey.Convey("Given a wardrobe fixture", t, func() {
		wardrobePath := writeFile(t, "wardrobe.json", fixture)

		convey.Convey("When matching an occasion", func() {
			out, err := run("match", "-f", wardrobePath, "-u", "ana", "-n", "wedding", "--seed", "3")

			convey.Convey("Then only outfits named after it are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				var picked []model.OutfitCandidate
				convey.So(json.Unmarshal([]byte(out), &picked), convey.ShouldBeNil)
				convey.So(picked, convey.ShouldHaveLength, 1)
				convey.So(picked[0].ID, convey.ShouldEqual, "o2")
			})
		})

		convey.Convey("When the user flag is missing", func() {
			_, err := run("match", "-f", wardrobePath)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When recommending for an empty cold wardrobe", func() {
			out, err := run("recommend", "-f", wardrobePath, "-u", "ben", "--climate", "cold")

			convey.Convey("Then a top and outerwear are suggested", func() {
				convey.So(err, convey.ShouldBeNil)
				var sug model.Suggestions
				convey.So(json.Unmarshal([]byte(out), &sug), convey.ShouldBeNil)
				convey.So(sug.NewOutfitIdeas, convey.ShouldBeEmpty)
				convey.So(sug.ItemsToAcquire, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When limiting recommendations to one idea", func() {
			out, err := run("recommend", "-f", wardrobePath, "-u", "ana", "-l", "1")

			convey.Convey("Then the combined idea list is cut to the limit", func() {
				convey.So(err, convey.ShouldBeNil)
				var sug model.Suggestions
				convey.So(json.Unmarshal([]byte(out), &sug), convey.ShouldBeNil)
				convey.So(len(sug.NewOutfitIdeas), convey.ShouldBeLessThanOrEqualTo, 1)

				flag := newRecommendCmd().Flags().Lookup("limit")
				convey.So(flag.Usage, convey.ShouldEqual, "maximum outfit ideas")
				convey.So(flag.DefValue, convey.ShouldEqual, "5")
			})
		})

		convey.Convey("When reporting statistics", func() {
			out, err := run("stats", "-f", wardrobePath, "-u", "ana")

			convey.Convey("Then the summary covers items and outfits", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep statsReport
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.Summary.TotalItems, convey.ShouldEqual, 2)
				convey.So(rep.Summary.TotalOutfits, convey.ShouldEqual, 2)
				convey.So(rep.CategoryUsage, convey.ShouldHaveLength, 2)
				convey.So(rep.WearFrequency[0].Item.ID, convey.ShouldEqual, "i1")
			})
		})

		convey.Convey("When the fixture is missing", func() {
			_, err := run("stats", "-f", filepath.Join(t.TempDir(), "absent.json"), "-u", "ana")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTokenCommand(t *testing.T) {
	convey.Convey("Given the token command", t, func() {
		convey.Convey("When a token is issued", func() {
			out, err := run("token", "--secret", "s3cret", "-u", "ana", "--ttl", "1h")

			convey.Convey("Then it verifies with the same secret", func() {
				convey.So(err, convey.ShouldBeNil)
				auth, _ := api.NewAuthenticator("s3cret")
				sub, verr := auth.Verify(strings.TrimSpace(out))
				convey.So(verr, convey.ShouldBeNil)
				convey.So(sub, convey.ShouldEqual, "ana")
			})
		})

		convey.Convey("When the secret is missing", func() {
			_, err := run("token", "-u", "ana")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestOpenSource(t *testing.T) {
	convey.Convey("Given a config without a database", t, func() {
		cfg := config.New()

		convey.Convey("When no fixture is set", func() {
			src, closeFn, err := openSource(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeFn()
			_, isMemory := src.(*wardrobe.MemorySource)
			convey.So(isMemory, convey.ShouldBeTrue)
		})

		convey.Convey("When a fixture is set", func() {
			cfg.FixturePath = writeFile(t, "wardrobe.json", fixture)
			src, closeFn, err := openSource(context.Background(), cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeFn()
			outfits, err := src.Outfits(context.Background(), "ana")
			convey.So(err, convey.ShouldBeNil)
			convey.So(outfits, convey.ShouldHaveLength, 2)
		})

		convey.Convey("When the fixture is malformed", func() {
			cfg.FixturePath = writeFile(t, "bad.json", "{")
			_, _, err := openSource(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a serve configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 2

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			err := serve(ctx, cfg)

			convey.Convey("Then the server shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(serve(context.Background(), cfg), convey.ShouldNotBeNil)
		})
	})
}
