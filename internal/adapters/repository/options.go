package repository

import "math/rand/v2"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithPrioritySource makes treap shapes reproducible, mostly for tests.
func WithPrioritySource(src rand.Source) Option {
	return func(s *TreapStore) {
		if src != nil {
			s.prio = rand.New(src)
		}
	}
}
