package queue

// Option tunes an InMemoryQueue at construction.
type Option func(*InMemoryQueue)

// WithCapacity bounds how many score jobs may wait before Enqueue starts
// refusing them. Non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
