package loadgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Generate builds cfg.Jobs score jobs spread over cfg.Users users. Each
// user gets distinct outfit ids. A fixed seed gives the same jobs.
func Generate(cfg Config, seed uint64) []Job {
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	jobs := make([]Job, cfg.Jobs)
	for i := range jobs {
		user := fmt.Sprintf("user-%03d", i%cfg.Users)
		outfit := fmt.Sprintf("outfit-%05d", i/cfg.Users)
		items := make([]Feature, cfg.Items)
		for j := range items {
			items[j] = Feature{
				ID:        fmt.Sprintf("%s-item-%d", outfit, j),
				Embedding: randomEmbedding(rng, cfg.Dimensions),
				Colors:    []string{randomColor(rng)},
			}
		}
		jobs[i] = Job{
			JobID:    uuid.NewString(),
			UserID:   user,
			OutfitID: outfit,
			Items:    items,
		}
	}
	return jobs
}

// randomEmbedding never returns the zero vector.
func randomEmbedding(rng *rand.Rand, dims int) []float64 {
	v := make([]float64, dims)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	v[rng.IntN(dims)] += 1.5
	return v
}

func randomColor(rng *rand.Rand) string {
	return fmt.Sprintf("#%02X%02X%02X", rng.IntN(256), rng.IntN(256), rng.IntN(256))
}
