package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContainerID(t *testing.T) {
	loc, err := ParseContainerID("pool")
	require.NoError(t, err)
	assert.True(t, loc.IsPool())

	loc, err = ParseContainerID("3_12")
	require.NoError(t, err)
	assert.Equal(t, CellLocation(3, 12), loc)
	assert.Equal(t, "3_12", loc.ContainerID())

	for _, bad := range []string{"", "assignedUsers", "3", "a_1", "1_b", "-1_0", "1_-2", "1_2_3"} {
		_, err := ParseContainerID(bad)
		assert.ErrorIs(t, err, ErrInvalidContainerID, bad)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	for _, loc := range []Location{PoolLocation(), CellLocation(0, 0), CellLocation(14, 6)} {
		parsed, err := ParseContainerID(loc.ContainerID())
		require.NoError(t, err)
		assert.Equal(t, loc, parsed)
	}
}
