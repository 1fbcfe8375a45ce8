package cyclic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants asserts the relations every public operation must keep.
func checkInvariants[T any](t *testing.T, l *List[T]) {
	t.Helper()
	capacity := len(l.elems)
	assert.GreaterOrEqual(t, l.size, 0)
	assert.LessOrEqual(t, l.size, capacity)
	if capacity == 0 {
		assert.Equal(t, 0, l.start)
	} else {
		assert.GreaterOrEqual(t, l.start, 0)
		assert.Less(t, l.start, capacity)
	}
	assert.GreaterOrEqual(t, l.iterating, 0)
}

func TestNextCapacity(t *testing.T) {
	tests := []struct {
		name string
		old  int
		min  int
		want int
	}{
		{name: "half again", old: 10, min: 11, want: 15},
		{name: "minimum wins", old: 10, min: 16, want: 16},
		{name: "empty", old: 0, min: 1, want: 1},
		{name: "clamped to ceiling", old: 1_500_000_000, min: 1_500_000_001, want: MaxCapacity},
		{name: "minimum past ceiling", old: 1_500_000_000, min: MaxCapacity + 1, want: MaxRepresentableCapacity},
		{name: "exactly ceiling", old: MaxCapacity - 1, min: MaxCapacity, want: MaxCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextCapacity(tt.old, tt.min))
		})
	}
}

func TestReadWraparound(t *testing.T) {
	// Logical [A B C] at physical slots 3, 4, 0.
	src := []string{"C", "", "", "A", "B"}

	dst := make([]string, 3)
	require.NoError(t, read(src, 3, 3, 0, dst, 0, 3))
	assert.Equal(t, []string{"A", "B", "C"}, dst)

	dst = make([]string, 4)
	require.NoError(t, read(src, 3, 3, 1, dst, 2, 2))
	assert.Equal(t, []string{"", "", "B", "C"}, dst)

	dst = make([]string, 8)
	start, err := grow(src, dst, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, []string{"A", "B", "C", "", "", "", "", ""}, dst)
}

func TestReadRejectsBadIndexes(t *testing.T) {
	src := make([]int, 5)
	dst := make([]int, 5)

	tests := []struct {
		name                   string
		size, start, off, dOff int
		count                  int
	}{
		{name: "start past storage", size: 3, start: 5, count: 3},
		{name: "negative start", size: 3, start: -1, count: 3},
		{name: "size past storage", size: 6, start: 0, count: 1},
		{name: "range past size", size: 3, start: 0, off: 2, count: 2},
		{name: "destination too small", size: 5, start: 0, dOff: 1, count: 5},
		{name: "negative offset", size: 3, start: 0, off: -1, count: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := read(src, tt.size, tt.start, tt.off, dst, tt.dOff, tt.count)
			assert.ErrorIs(t, err, errIndex)
		})
	}

	_, err := grow(src, make([]int, 2), 3, 0)
	assert.ErrorIs(t, err, errIndex)
}

func TestCorruptionIsConcurrentModification(t *testing.T) {
	corrupt := func() *List[int] {
		l := From([]int{1, 2, 3})
		require.NoError(t, l.EnsureCapacity(6))
		// Simulates another goroutine shrinking storage mid-operation.
		l.elems = l.elems[:2]
		return l
	}

	ops := map[string]func(l *List[int]) error{
		"clone": func(l *List[int]) error {
			_, err := l.Clone()
			return err
		},
		"to slice": func(l *List[int]) error {
			_, err := l.ToSlice()
			return err
		},
		"trim":   func(l *List[int]) error { return l.TrimToSize() },
		"ensure": func(l *List[int]) error { return l.EnsureCapacity(10) },
		"split": func(l *List[int]) error {
			_, err := l.Split(1)
			return err
		},
		"get": func(l *List[int]) error {
			_, err := l.Get(2)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			l := corrupt()
			err := op(l)
			assert.ErrorIs(t, err, ErrConcurrentModification)
			assert.NotErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestIteratorDetectsVersionChange(t *testing.T) {
	l := From([]int{1, 2, 3})

	it, err := l.Iterator()
	require.NoError(t, err)
	require.True(t, it.Next())

	// Another goroutine changing the list bypasses the guard.
	l.version++

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrConcurrentModification)
	assert.Equal(t, 0, l.iterating)
	require.NoError(t, l.Append(4))
}

func TestIteratorDetectsShrunkStorage(t *testing.T) {
	l := From([]int{1, 2, 3})
	err := l.Each(func(i int, _ int) bool {
		if i == 0 {
			l.elems = l.elems[:1]
		}
		return true
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, 0, l.iterating)
}

func TestInvariantsAcrossOperations(t *testing.T) {
	l, err := NewWithCapacity[int](3)
	require.NoError(t, err)

	steps := []func() error{
		func() error { return l.Append(1) },
		func() error { return l.Prepend(0) },
		func() error { return l.Append(2) },
		func() error { return l.Prepend(-1) },
		func() error { _, err := l.RemoveFirst(); return err },
		func() error { return l.TrimToSize() },
		func() error { return l.EnsureCapacity(7) },
		func() error { _, err := l.RemoveLast(); return err },
		func() error { _, err := l.Split(1); return err },
		func() error { return l.Clear() },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		checkInvariants(t, l)
		assert.Equal(t, min(l.size, len(l.elems)-l.start), headRun(l.size, len(l.elems), l.start))
	}
}

func TestCorruptStartIsConcurrentModification(t *testing.T) {
	ops := map[string]func(l *List[int]) error{
		"append":  func(l *List[int]) error { return l.Append(4) },
		"prepend": func(l *List[int]) error { return l.Prepend(0) },
		"set":     func(l *List[int]) error { return l.Set(0, 9) },
		"get": func(l *List[int]) error {
			_, err := l.Get(0)
			return err
		},
		"remove first": func(l *List[int]) error {
			_, err := l.RemoveFirst()
			return err
		},
		"remove last": func(l *List[int]) error {
			_, err := l.RemoveLast()
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			l := From([]int{1, 2, 3})
			require.NoError(t, l.EnsureCapacity(6))
			l.start = 10

			var err error
			assert.NotPanics(t, func() { err = op(l) })
			assert.ErrorIs(t, err, ErrConcurrentModification)
		})
	}
}

func TestPrependWrapsToEndOfStorage(t *testing.T) {
	l, err := NewWithCapacity[string](4)
	require.NoError(t, err)
	require.NoError(t, l.Append("b"))
	require.NoError(t, l.Prepend("a"))

	assert.Equal(t, 3, l.start)
	assert.Equal(t, []string{"b", "", "", "a"}, l.elems)
}
