package cyclic

import "fmt"

// Iterator walks a list front to back. Only one iterator may be open on a
// list at a time, and the list cannot be structurally changed until it is
// closed. Iterators close themselves when exhausted or on error; call Close
// when abandoning one early.
//
//	it, err := l.Iterator()
//	if err != nil {
//		return err
//	}
//	defer it.Close()
//	for it.Next() {
//		use(it.Value())
//	}
//	return it.Err()
type Iterator[T any] struct {
	list    *List[T]
	version int
	next    int
	index   int
	value   T
	err     error
	closed  bool
}

// Iterator opens an iteration over the list. It fails with ErrUsage if
// another iteration is already open.
func (l *List[T]) Iterator() (*Iterator[T], error) {
	if l.iterating > 0 {
		return nil, fmt.Errorf("%w: nested iteration is not supported", ErrUsage)
	}
	l.iterating++
	return &Iterator[T]{
		list:    l,
		version: l.version,
		index:   -1,
	}, nil
}

// Next advances to the following element, returning false once the list is
// exhausted or the iterator has failed.
func (it *Iterator[T]) Next() bool {
	if it.closed {
		return false
	}

	l := it.list
	if l.version != it.version {
		it.fail(fmt.Errorf("%w: version changed from %d to %d during iteration",
			ErrConcurrentModification, it.version, l.version))
		return false
	}
	if it.next >= l.size {
		it.Close()
		return false
	}

	p, err := l.slot(it.next)
	if err != nil {
		it.fail(concurrencyFault("iterate", err))
		return false
	}
	it.value = l.elems[p]
	it.index = it.next
	it.next++
	return true
}

// Value returns the element Next stopped at.
func (it *Iterator[T]) Value() T {
	return it.value
}

// Index returns the logical position of Value, or -1 before the first call
// to Next.
func (it *Iterator[T]) Index() int {
	return it.index
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close ends the iteration and releases the list for modification. It is
// safe to call more than once.
func (it *Iterator[T]) Close() {
	if it.closed {
		return
	}
	it.closed = true

	var zero T
	it.value = zero
	if it.list.iterating > 0 {
		it.list.iterating--
	}
}

func (it *Iterator[T]) fail(err error) {
	it.err = err
	it.Close()
}

// Each calls fn for every element in order until fn returns false. The list
// is released when Each returns, including when fn panics.
func (l *List[T]) Each(fn func(i int, v T) bool) error {
	it, err := l.Iterator()
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if !fn(it.Index(), it.Value()) {
			return nil
		}
	}
	return it.Err()
}

// Iterating reports whether an iteration is currently open.
func (l *List[T]) Iterating() bool {
	return l.iterating > 0
}

func (l *List[T]) checkNotIterating(op string) error {
	if l.iterating > 0 {
		return fmt.Errorf("%w: cannot %s", ErrUsage, op)
	}
	return nil
}
