package streams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceStream(t *testing.T) {
	s := SliceStream([]string{"a", "b"})

	var got []string
	for s.Next() {
		got = append(got, s.Current())
	}

	require.Equal(t, []string{"a", "b"}, got)
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
}

func TestSliceStream_Empty(t *testing.T) {
	s := SliceStream([]int{})
	require.False(t, s.Next())
}

func TestAll(t *testing.T) {
	s := SliceStream([]int{1, 2, 3})

	got, err := All[int](s)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}
