package hintdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Empty(t, batches([]int{}, 10))
		assert.Empty(t, batches[int](nil, 10))
	})

	t.Run("single chunk when input fits the limit", func(t *testing.T) {
		chunks := batches([]int{1, 2, 3}, 3)
		require.Len(t, chunks, 1)
		assert.Equal(t, []int{1, 2, 3}, chunks[0])
	})

	t.Run("chunk count is ceil of size over limit", func(t *testing.T) {
		keys := make([]int, 0, 10)
		for i := 0; i < 10; i++ {
			keys = append(keys, i)
		}

		chunks := batches(keys, 3)
		require.Len(t, chunks, 4)
		assert.Equal(t, []int{0, 1, 2}, chunks[0])
		assert.Equal(t, []int{3, 4, 5}, chunks[1])
		assert.Equal(t, []int{6, 7, 8}, chunks[2])
		assert.Equal(t, []int{9}, chunks[3])
	})

	t.Run("every key lands in exactly one chunk", func(t *testing.T) {
		keys := make([]int, 0, 5000)
		for i := 0; i < 5000; i++ {
			keys = append(keys, i)
		}

		chunks := batches(keys, 999)
		require.Len(t, chunks, 6)

		var flattened []int
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 999)
			flattened = append(flattened, chunk...)
		}
		assert.Equal(t, keys, flattened)
	})

	t.Run("deterministic for a fixed input ordering", func(t *testing.T) {
		keys := []string{"e", "a", "c", "b", "d"}
		assert.Equal(t, batches(keys, 2), batches(keys, 2))
	})

	t.Run("non-positive limit panics", func(t *testing.T) {
		assert.Panics(t, func() { batches([]int{1}, 0) })
		assert.Panics(t, func() { batches([]int{1}, -1) })
	})
}
