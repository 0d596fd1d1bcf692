package idx_test

import (
	"slices"
	"testing"
	"time"

	"github.com/aussiebroadwan/studio/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.NotEqual(t, id, idx.New())
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0))
	b := idx.NewAt(time.Unix(2, 0))

	require.Equal(t, -1, idx.Compare(a, b))
	require.Equal(t, 1, idx.Compare(b, a))
	require.Equal(t, 0, idx.Compare(a, a))
}

func TestSameInstantStaysOrdered(t *testing.T) {
	at := time.Unix(1700000000, 0)
	ids := make([]idx.ID, 0, 50)
	for range 50 {
		ids = append(ids, idx.NewAt(at))
	}
	require.True(t, slices.IsSortedFunc(ids, idx.Compare))
}
