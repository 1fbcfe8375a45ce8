package circularbuffer_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gregoryjjb/cyclist/circularbuffer"
)

func TestCircularBuffer(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		pushes []int
		want   []int
	}{
		{name: "empty", size: 3, pushes: nil, want: []int{}},
		{name: "partial", size: 3, pushes: []int{1, 2}, want: []int{1, 2}},
		{name: "exactly full", size: 3, pushes: []int{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "overwrites oldest", size: 3, pushes: []int{1, 2, 3, 4, 5}, want: []int{3, 4, 5}},
		{name: "wraps many times", size: 2, pushes: []int{1, 2, 3, 4, 5, 6, 7}, want: []int{6, 7}},
		{name: "size clamped to one", size: 0, pushes: []int{1, 2}, want: []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := circularbuffer.New[int](tt.size)
			for _, v := range tt.pushes {
				cb.Push(v)
			}

			got := []int{}
			cb.Each(func(v int) {
				got = append(got, v)
			})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, cb.Snapshot())
			assert.Equal(t, len(tt.want), cb.Len())
		})
	}
}

func TestCircularBufferConcurrentPush(t *testing.T) {
	cb := circularbuffer.New[int](50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cb.Push(i)
				_ = cb.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, cb.Len())
	assert.Equal(t, 50, cb.Size())
}
