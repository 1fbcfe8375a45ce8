// Package circularbuffer keeps the most recent N values pushed into it.
package circularbuffer

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gregoryjjb/cyclist/cyclic"
)

var blog zerolog.Logger

func init() {
	blog = log.With().Str("component", "circularbuffer").Logger()
}

// CircularBuffer is a fixed size, goroutine safe ring. Once full, every push
// evicts the oldest value.
type CircularBuffer[T any] struct {
	values *cyclic.List[T]
	size   int
	mu     sync.Mutex
}

// New returns a buffer holding at most size values. A size below one is
// treated as one.
func New[T any](size int) *CircularBuffer[T] {
	if size < 1 {
		size = 1
	}
	values, err := cyclic.NewWithCapacity[T](size)
	if err != nil {
		blog.Warn().Err(err).Int("size", size).Msg("Falling back to default capacity")
		values = cyclic.New[T]()
	}

	return &CircularBuffer[T]{
		values: values,
		size:   size,
	}
}

func (cb *CircularBuffer[T]) Push(element T) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.values.Len() >= cb.size {
		if _, err := cb.values.RemoveFirst(); err != nil {
			blog.Err(err).Msg("Evicting oldest value failed")
			return
		}
	}
	if err := cb.values.Append(element); err != nil {
		blog.Err(err).Msg("Push failed")
	}
}

// Each iterates over all elements in the buffer in the order they were inserted
func (cb *CircularBuffer[T]) Each(fn func(T)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	err := cb.values.Each(func(_ int, v T) bool {
		fn(v)
		return true
	})
	if err != nil {
		blog.Err(err).Msg("Iteration failed")
	}
}

// Snapshot returns a copy of the buffered values, oldest first.
func (cb *CircularBuffer[T]) Snapshot() []T {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	values, err := cb.values.ToSlice()
	if err != nil {
		blog.Err(err).Msg("Snapshot failed")
		return nil
	}
	return values
}

func (cb *CircularBuffer[T]) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.values.Len()
}

// Size returns the maximum number of values kept.
func (cb *CircularBuffer[T]) Size() int {
	return cb.size
}
