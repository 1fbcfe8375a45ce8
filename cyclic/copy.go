package cyclic

// read copies count elements of the logical sequence held in src, starting
// at logical position offset, into dst at dstOffset.
//
// The sequence occupies src from physical position start, wrapping to 0
// after the head run. At most two copies are made.
func read[T any](src []T, size, start, offset int, dst []T, dstOffset, count int) error {
	if count == 0 {
		return nil
	}
	capacity := len(src)
	if count < 0 || offset < 0 || offset+count > size || size > capacity {
		return errIndex
	}
	if start < 0 || start >= capacity {
		return errIndex
	}
	if dstOffset < 0 || dstOffset+count > len(dst) {
		return errIndex
	}

	head := headRun(size, capacity, start)
	if offset < head {
		from := start + offset
		if from < 0 || from >= capacity {
			return errIndex
		}
		n := min(count, head-offset)
		copy(dst[dstOffset:dstOffset+n], src[from:from+n])
		dstOffset += n
		offset += n
		count -= n
	}
	if count == 0 {
		return nil
	}

	// Remainder lives in the wrapped tail, starting at physical 0.
	from := offset - head
	if from < 0 || from+count > capacity {
		return errIndex
	}
	copy(dst[dstOffset:dstOffset+count], src[from:from+count])
	return nil
}

// grow moves the whole logical sequence of old into dst, unwrapped from
// physical position 0. The returned start is always 0.
func grow[T any](old, dst []T, size, start int) (int, error) {
	if size > len(dst) {
		return 0, errIndex
	}
	if err := read(old, size, start, 0, dst, 0, size); err != nil {
		return 0, err
	}
	return 0, nil
}

// headRun is the number of elements stored contiguously from start to the
// end of storage before the sequence wraps.
func headRun(size, capacity, start int) int {
	return min(size, capacity-start)
}
