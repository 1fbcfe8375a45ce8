package cyclic

import (
	"fmt"
	"math"
)

const (
	// DefaultCapacity is the number of slots allocated by New.
	DefaultCapacity = 10

	// MaxCapacity is the ceiling that overflowing growth is clamped to.
	// It leaves headroom below MaxRepresentableCapacity so that growth
	// arithmetic never wraps.
	MaxCapacity = math.MaxInt32 - 8

	// MaxRepresentableCapacity is the largest capacity a list may have.
	MaxRepresentableCapacity = math.MaxInt32
)

// EnsureCapacity grows the list, if necessary, so it can hold at least
// minCapacity elements without reallocating. Growth is by half the current
// capacity unless minCapacity asks for more.
//
// It fails with ErrUsage while the list is being iterated, even if no
// growth would be needed.
func (l *List[T]) EnsureCapacity(minCapacity int) error {
	if err := l.checkNotIterating("ensure capacity"); err != nil {
		return err
	}
	return l.ensureCapacity(minCapacity)
}

// TrimToSize shrinks storage to exactly Len slots.
func (l *List[T]) TrimToSize() error {
	if err := l.checkNotIterating("trim to size"); err != nil {
		return err
	}
	oldCapacity := len(l.elems)
	if l.size > oldCapacity {
		return concurrencyFault("trim to size", errIndex)
	}
	if l.size == oldCapacity {
		return nil
	}

	elems := make([]T, l.size)
	if err := read(l.elems, l.size, l.start, 0, elems, 0, l.size); err != nil {
		return concurrencyFault("trim to size", err)
	}
	l.elems = elems
	l.start = 0
	l.version += oldCapacity - l.size
	return nil
}

func (l *List[T]) ensureCapacity(minCapacity int) error {
	oldCapacity := len(l.elems)
	if minCapacity <= 0 || minCapacity <= oldCapacity {
		return nil
	}
	if minCapacity > MaxRepresentableCapacity {
		return fmt.Errorf("%w: requested %d, limit %d", ErrCapacity, minCapacity, MaxRepresentableCapacity)
	}

	newCapacity := nextCapacity(oldCapacity, minCapacity)
	elems := make([]T, newCapacity)
	start, err := grow(l.elems, elems, l.size, l.start)
	if err != nil {
		return concurrencyFault("ensure capacity", err)
	}
	l.elems = elems
	l.start = start
	l.version += newCapacity - oldCapacity
	return nil
}

// nextCapacity picks the capacity to grow to from oldCapacity so that at
// least minCapacity elements fit.
func nextCapacity(oldCapacity, minCapacity int) int {
	grown := oldCapacity + oldCapacity/2
	if grown < 0 || grown > MaxCapacity {
		if minCapacity > MaxCapacity {
			grown = MaxRepresentableCapacity
		} else {
			grown = MaxCapacity
		}
	}
	if grown < minCapacity {
		grown = minCapacity
	}
	return grown
}
