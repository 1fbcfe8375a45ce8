package cyclic

// Clone returns an independent copy of the list. The copy has exactly Len
// slots, is unwrapped, and starts with a fresh version and no iteration.
func (l *List[T]) Clone() (*List[T], error) {
	elems := make([]T, l.size)
	if err := read(l.elems, l.size, l.start, 0, elems, 0, l.size); err != nil {
		return nil, concurrencyFault("clone", err)
	}
	return &List[T]{elems: elems, size: l.size}, nil
}

// Split cuts the list at position at. The receiver keeps the elements before
// at; the elements from at onwards are moved into a new list with its own
// storage, which is returned.
func (l *List[T]) Split(at int) (*List[T], error) {
	if err := l.checkNotIterating("split"); err != nil {
		return nil, err
	}
	if at < 0 || at > l.size {
		return nil, outOfRange(at, l.size)
	}

	moved := l.size - at
	elems := make([]T, moved)
	if err := read(l.elems, l.size, l.start, at, elems, 0, moved); err != nil {
		return nil, concurrencyFault("split", err)
	}

	l.zero(at, moved)
	l.size = at
	if l.size == 0 {
		l.start = 0
	}
	l.version += moved
	return &List[T]{elems: elems, size: moved}, nil
}

// zero clears count slots starting at logical position offset so they no
// longer hold references. The range must already be known to be valid.
func (l *List[T]) zero(offset, count int) {
	head := headRun(l.size, len(l.elems), l.start)
	if offset < head {
		n := min(count, head-offset)
		from := l.start + offset
		clear(l.elems[from : from+n])
		offset += n
		count -= n
	}
	if count > 0 {
		from := offset - head
		clear(l.elems[from : from+count])
	}
}
