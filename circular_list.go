package main

import "gregoryjjb/cyclist/cyclic"

// CircularList is a round-robin cursor over a list. The cursor wraps back to
// the front when it runs past the end, including when the list shrinks
// underneath it.
type CircularList[T any] struct {
	values   *cyclic.List[T]
	position int
}

func NewCircularList[T any](values *cyclic.List[T]) *CircularList[T] {
	return &CircularList[T]{
		values:   values,
		position: 0,
	}
}

func (cl *CircularList[T]) Replace(newValues *cyclic.List[T]) {
	cl.values = newValues
	cl.position = 0
}

// Clear rewinds the cursor to the front.
func (cl *CircularList[T]) Clear() {
	cl.position = 0
}

func (cl *CircularList[T]) Current() T {
	return cl.at(cl.wrap(cl.position))
}

func (cl *CircularList[T]) PeekNext() T {
	return cl.at(cl.nextPosition())
}

func (cl *CircularList[T]) Advance() {
	cl.position = cl.nextPosition()
}

func (cl *CircularList[T]) Length() int {
	if cl.values == nil {
		return 0
	}
	return cl.values.Len()
}

func (cl *CircularList[T]) at(p int) T {
	var value T
	if p >= cl.Length() {
		return value
	}
	value, err := cl.values.Get(p)
	if err != nil {
		var zero T
		return zero
	}
	return value
}

func (cl *CircularList[T]) wrap(p int) int {
	if p >= cl.Length() {
		return 0
	}
	return p
}

func (cl *CircularList[T]) nextPosition() int {
	return cl.wrap(cl.wrap(cl.position) + 1)
}
