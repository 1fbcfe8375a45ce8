// Package cyclic implements List, a growable ring buffer holding an ordered
// sequence.
//
// The sequence starts at an arbitrary physical slot and wraps around the end
// of storage, so elements can be added or removed at either end in amortised
// constant time. Storage grows by half its size when full and is always
// unwrapped when it is reallocated.
//
// A List is not safe for concurrent use. Misuse from a single goroutine
// (changing the list while iterating it) is always reported with ErrUsage;
// interference from other goroutines is detected on a best effort basis and
// reported with ErrConcurrentModification.
package cyclic

import (
	"fmt"
)

// List is a ring buffer backed sequence. The zero value is an empty list
// with no storage, ready to use.
type List[T any] struct {
	elems     []T
	size      int
	start     int
	version   int
	iterating int
}

// New returns an empty list with DefaultCapacity slots allocated.
func New[T any]() *List[T] {
	return &List[T]{elems: make([]T, DefaultCapacity)}
}

// NewWithCapacity returns an empty list with capacity slots allocated.
func NewWithCapacity[T any](capacity int) (*List[T], error) {
	if capacity < 0 || capacity > MaxRepresentableCapacity {
		return nil, fmt.Errorf("%w: initial capacity %d", ErrCapacity, capacity)
	}
	return &List[T]{elems: make([]T, capacity)}, nil
}

// From returns a list holding a copy of values, with no spare capacity.
func From[T any](values []T) *List[T] {
	elems := make([]T, len(values))
	copy(elems, values)
	return &List[T]{elems: elems, size: len(values)}
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int {
	return l.size
}

// IsEmpty reports whether the list holds no elements.
func (l *List[T]) IsEmpty() bool {
	return l.size == 0
}

// Cap returns the number of allocated slots.
func (l *List[T]) Cap() int {
	return len(l.elems)
}

// Version returns a token that changes whenever the list is structurally
// modified. It grows by the magnitude of each change.
func (l *List[T]) Version() int {
	return l.version
}

// Get returns the element at logical position i.
func (l *List[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= l.size {
		return zero, outOfRange(i, l.size)
	}
	p, err := l.slot(i)
	if err != nil {
		return zero, concurrencyFault("get", err)
	}
	return l.elems[p], nil
}

// Set replaces the element at logical position i. The layout is unchanged,
// so Set is permitted while iterating.
func (l *List[T]) Set(i int, v T) error {
	if i < 0 || i >= l.size {
		return outOfRange(i, l.size)
	}
	p, err := l.slot(i)
	if err != nil {
		return concurrencyFault("set", err)
	}
	l.elems[p] = v
	return nil
}

// Append adds v to the end of the list.
func (l *List[T]) Append(v T) error {
	if err := l.checkNotIterating("append"); err != nil {
		return err
	}
	if err := l.reserve(1); err != nil {
		return err
	}
	p, err := l.slot(l.size)
	if err != nil {
		return concurrencyFault("append", err)
	}
	l.elems[p] = v
	l.size++
	l.version++
	return nil
}

// Prepend adds v to the front of the list.
func (l *List[T]) Prepend(v T) error {
	if err := l.checkNotIterating("prepend"); err != nil {
		return err
	}
	if err := l.reserve(1); err != nil {
		return err
	}
	// The last logical slot of a full ring is the one just before start.
	p, err := l.slot(len(l.elems) - 1)
	if err != nil {
		return concurrencyFault("prepend", err)
	}
	l.elems[p] = v
	l.start = p
	l.size++
	l.version++
	return nil
}

// RemoveFirst removes and returns the first element.
func (l *List[T]) RemoveFirst() (T, error) {
	var zero T
	if err := l.checkNotIterating("remove first"); err != nil {
		return zero, err
	}
	if l.size == 0 {
		return zero, outOfRange(0, 0)
	}
	p, err := l.slot(0)
	if err != nil {
		return zero, concurrencyFault("remove first", err)
	}
	v := l.elems[p]
	l.elems[p] = zero

	l.size--
	l.start++
	if l.start == len(l.elems) || l.size == 0 {
		l.start = 0
	}
	l.version++
	return v, nil
}

// RemoveLast removes and returns the last element.
func (l *List[T]) RemoveLast() (T, error) {
	var zero T
	if err := l.checkNotIterating("remove last"); err != nil {
		return zero, err
	}
	if l.size == 0 {
		return zero, outOfRange(-1, 0)
	}
	p, err := l.slot(l.size - 1)
	if err != nil {
		return zero, concurrencyFault("remove last", err)
	}
	v := l.elems[p]
	l.elems[p] = zero

	l.size--
	if l.size == 0 {
		l.start = 0
	}
	l.version++
	return v, nil
}

// Clear removes every element. Capacity is kept.
func (l *List[T]) Clear() error {
	if err := l.checkNotIterating("clear"); err != nil {
		return err
	}
	clear(l.elems)
	removed := l.size
	l.size = 0
	l.start = 0
	l.version += removed
	return nil
}

// ToSlice returns the elements in logical order in a newly allocated slice.
func (l *List[T]) ToSlice() ([]T, error) {
	out := make([]T, l.size)
	if err := read(l.elems, l.size, l.start, 0, out, 0, l.size); err != nil {
		return nil, concurrencyFault("to slice", err)
	}
	return out, nil
}

// slot maps logical position i to its physical slot. Positions up to and
// including size are valid as long as they fit in storage.
func (l *List[T]) slot(i int) (int, error) {
	capacity := len(l.elems)
	if i < 0 || i >= capacity || l.start < 0 || l.start >= capacity {
		return 0, errIndex
	}
	p := l.start + i
	if p >= capacity {
		p -= capacity
	}
	return p, nil
}

// reserve makes room for n more elements.
func (l *List[T]) reserve(n int) error {
	if l.size > MaxRepresentableCapacity-n {
		return fmt.Errorf("%w: size %d cannot grow by %d", ErrCapacity, l.size, n)
	}
	return l.ensureCapacity(l.size + n)
}
