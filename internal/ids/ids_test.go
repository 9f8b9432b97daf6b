package ids_test

import (
	"strconv"
	"testing"

	"github.com/ganot/parley/internal/ids"
	"github.com/stretchr/testify/require"
)

func TestGeneratorProducesIncreasingIDs(t *testing.T) {
	gen, err := ids.New(1)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	var prev int64
	for range 1000 {
		id := gen.NewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}

		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		require.Greater(t, n, prev)
		prev = n
	}
}

func TestGeneratorRejectsBadNode(t *testing.T) {
	_, err := ids.New(5000)
	require.Error(t, err)
}
