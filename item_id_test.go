package hintdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIDFromBytes(t *testing.T) {
	t.Parallel()

	t.Run("accepts exactly 32 bytes", func(t *testing.T) {
		raw := make([]byte, ItemIDSize)
		raw[0] = 0xab
		raw[31] = 0xcd

		id, err := ItemIDFromBytes(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.Bytes())
	})

	t.Run("rejects other widths", func(t *testing.T) {
		_, err := ItemIDFromBytes(make([]byte, 31))
		require.Error(t, err)

		_, err = ItemIDFromBytes(make([]byte, 33))
		require.Error(t, err)

		_, err = ItemIDFromBytes(nil)
		require.Error(t, err)
	})
}

func TestItemIDFromHex(t *testing.T) {
	t.Parallel()

	raw := make([]byte, ItemIDSize)
	for i := range raw {
		raw[i] = byte(i)
	}
	want, err := ItemIDFromBytes(raw)
	require.NoError(t, err)

	id, err := ItemIDFromHex(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, id)

	_, err = ItemIDFromHex("not hex")
	require.Error(t, err)

	_, err = ItemIDFromHex("abcd")
	require.Error(t, err)
}

func TestItemIDCompare(t *testing.T) {
	t.Parallel()

	var a, b ItemID
	b[31] = 1

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}
