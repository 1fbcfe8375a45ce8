package cyclic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gregoryjjb/cyclist/cyclic"
)

// mutations lists every layout changing operation.
var mutations = map[string]func(l *cyclic.List[int]) error{
	"append":  func(l *cyclic.List[int]) error { return l.Append(9) },
	"prepend": func(l *cyclic.List[int]) error { return l.Prepend(9) },
	"remove first": func(l *cyclic.List[int]) error {
		_, err := l.RemoveFirst()
		return err
	},
	"remove last": func(l *cyclic.List[int]) error {
		_, err := l.RemoveLast()
		return err
	},
	"clear":           func(l *cyclic.List[int]) error { return l.Clear() },
	"ensure capacity": func(l *cyclic.List[int]) error { return l.EnsureCapacity(100) },
	"ensure no-op":    func(l *cyclic.List[int]) error { return l.EnsureCapacity(0) },
	"trim":            func(l *cyclic.List[int]) error { return l.TrimToSize() },
	"split": func(l *cyclic.List[int]) error {
		_, err := l.Split(1)
		return err
	},
}

func TestMutationDuringIteration(t *testing.T) {
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			l := cyclic.From([]int{1, 2, 3})
			require.NoError(t, l.EnsureCapacity(8))
			before := l.Version()

			it, err := l.Iterator()
			require.NoError(t, err)
			require.True(t, it.Next())

			assert.ErrorIs(t, mutate(l), cyclic.ErrUsage)
			assert.Equal(t, before, l.Version())
			assert.Equal(t, []int{1, 2, 3}, contents(t, l))

			// The iterator is unaffected by the rejected call.
			require.True(t, it.Next())
			assert.Equal(t, 2, it.Value())
			it.Close()

			assert.NoError(t, mutate(l))
		})
	}
}

func TestNestedIteration(t *testing.T) {
	l := cyclic.From([]int{1, 2})

	it, err := l.Iterator()
	require.NoError(t, err)

	_, err = l.Iterator()
	assert.ErrorIs(t, err, cyclic.ErrUsage)
	assert.ErrorIs(t, l.Each(func(int, int) bool { return true }), cyclic.ErrUsage)

	it.Close()
	it2, err := l.Iterator()
	require.NoError(t, err)
	it2.Close()
}

func TestIteratorReleasesOnExhaustion(t *testing.T) {
	l := cyclic.From([]int{1, 2, 3})

	it, err := l.Iterator()
	require.NoError(t, err)
	assert.Equal(t, -1, it.Index())

	var got []int
	for it.Next() {
		assert.Equal(t, len(got), it.Index())
		got = append(got, it.Value())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.False(t, l.Iterating())
	assert.False(t, it.Next())

	// Closing an already finished iterator must not release someone else's.
	it2, err := l.Iterator()
	require.NoError(t, err)
	it.Close()
	assert.True(t, l.Iterating())
	it2.Close()
	assert.False(t, l.Iterating())

	require.NoError(t, l.Append(4))
}

func TestEachEarlyExit(t *testing.T) {
	l := cyclic.From([]int{1, 2, 3, 4})

	var got []int
	require.NoError(t, l.Each(func(_ int, v int) bool {
		got = append(got, v)
		return v < 2
	}))
	assert.Equal(t, []int{1, 2}, got)
	assert.False(t, l.Iterating())
	require.NoError(t, l.Append(5))
}

func TestEachReleasesOnPanic(t *testing.T) {
	l := cyclic.From([]int{1, 2})

	assert.Panics(t, func() {
		_ = l.Each(func(int, int) bool { panic("boom") })
	})
	assert.False(t, l.Iterating())
	require.NoError(t, l.Append(3))
}

func TestEachCallbackCannotMutate(t *testing.T) {
	l := cyclic.From([]int{1, 2})

	var errs []error
	require.NoError(t, l.Each(func(i int, v int) bool {
		errs = append(errs, l.Append(v))
		assert.NoError(t, l.Set(i, v*10))
		return true
	}))

	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, cyclic.ErrUsage)
	}
	assert.Equal(t, []int{10, 20}, contents(t, l))
}

func TestReadsAllowedDuringIteration(t *testing.T) {
	l := wrapped(t)

	it, err := l.Iterator()
	require.NoError(t, err)
	defer it.Close()

	got, err := l.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "C", got)
	assert.Equal(t, []string{"A", "B", "C"}, contents(t, l))

	clone, err := l.Clone()
	require.NoError(t, err)
	assert.False(t, clone.Iterating())
	require.NoError(t, clone.Append("D"))
}
