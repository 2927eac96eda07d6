package buffer

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/errors"
)

func TestRing_FIFO(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 3; i++ {
		require.NoError(t, r.Write(i))
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{1, 2, 3}, r.Snapshot())

	v, ok := r.Read()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	require.NoError(t, r.Write(4))
	assert.Equal(t, []int{2, 3, 4}, r.Drain())
	assert.Equal(t, 0, r.Len())

	_, ok = r.Read()
	assert.False(t, ok)
	assert.Equal(t, Stats{Writes: 4, Reads: 4}, r.Stats())
}

func TestRing_OverflowPolicies(t *testing.T) {
	tests := []struct {
		policy  OverflowPolicy
		want    []string
		dropped []string
	}{
		{DropOldest, []string{"b", "c"}, []string{"a"}},
		{DropNewest, []string{"a", "b"}, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			var dropped []string
			r := New(2,
				WithOverflowPolicy[string](tt.policy),
				WithDropCallback(func(s string) { dropped = append(dropped, s) }))
			for _, s := range []string{"a", "b", "c"} {
				require.NoError(t, r.Write(s))
			}
			assert.Equal(t, tt.want, r.Snapshot())
			assert.Equal(t, tt.dropped, dropped)
			assert.Equal(t, int64(1), r.Stats().Dropped)
		})
	}
}

func TestRing_Close(t *testing.T) {
	r := New[int](0)
	assert.Equal(t, 1, r.Cap())
	require.NoError(t, r.Write(7))
	require.NoError(t, r.Close())

	err := r.Write(8)
	assert.True(t, stderrors.Is(err, errors.ErrClosed))
	assert.True(t, errors.IsInvalid(err))
	v, ok := r.Read()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestRing_Concurrent(t *testing.T) {
	r := New[int](64)
	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				_ = r.Write(g*100 + i)
			}
		}()
	}
	wg.Wait()
	s := r.Stats()
	assert.Equal(t, int64(400), s.Writes)
	assert.Equal(t, int64(400-64), s.Dropped)
	assert.Equal(t, 64, r.Len())
}
