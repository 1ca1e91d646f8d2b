package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timeslots-api/internal/models"
)

func blocked(t *testing.T, ranges ...models.TimeRange) []models.Slot {
	t.Helper()
	out := make([]models.Slot, 0, len(ranges))
	for _, r := range ranges {
		s, err := NormalizeSlot(models.NewRawInterval(r.Start, r.End))
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestFilterOverlapping(t *testing.T) {
	candidates := blocked(t, rng(8, 0, 9, 0), rng(9, 10, 9, 20), rng(9, 30, 10, 0), rng(9, 25, 9, 35))
	slot := rng(9, 0, 9, 30)

	exclusive := FilterOverlapping(slot, candidates, false)
	require.Len(t, exclusive, 2)
	assert.Equal(t, candidates[1].ID, exclusive[0].ID)
	assert.Equal(t, candidates[3].ID, exclusive[1].ID)

	inclusive := FilterOverlapping(slot, candidates, true)
	assert.Len(t, inclusive, 4)

	assert.Empty(t, FilterOverlapping(slot, nil, false))
}

func TestResolve(t *testing.T) {
	unavailable := blocked(t, rng(9, 15, 9, 45))

	assert.False(t, Resolve(rng(9, 0, 9, 30), unavailable, false))
	assert.False(t, Resolve(rng(9, 30, 10, 0), unavailable, false))
	assert.True(t, Resolve(rng(9, 45, 10, 15), unavailable, false))
	assert.False(t, Resolve(rng(9, 45, 10, 15), unavailable, true))
	assert.True(t, Resolve(rng(9, 0, 9, 30), nil, false))
}

func TestResolveIsOrderIndependent(t *testing.T) {
	unavailable := blocked(t, rng(7, 0, 8, 0), rng(9, 50, 10, 10), rng(12, 0, 13, 0))
	reversed := []models.Slot{unavailable[2], unavailable[1], unavailable[0]}

	slots, err := PartitionRange(at(6, 0), at(14, 0), 1200)
	require.NoError(t, err)
	for _, s := range slots {
		for _, inclusive := range []bool{false, true} {
			assert.Equal(t,
				Resolve(s.Range(), unavailable, inclusive),
				Resolve(s.Range(), reversed, inclusive))
		}
	}
}

func TestResolveAllKeepsOtherFields(t *testing.T) {
	slots, err := PartitionRange(at(9, 0), at(10, 0), 1800)
	require.NoError(t, err)
	slots[1].Metadata["room"] = "A1"

	resolved := ResolveAll(slots, blocked(t, rng(9, 40, 9, 50)), false)
	require.Len(t, resolved, 2)
	assert.True(t, resolved[0].IsAvailable)
	assert.False(t, resolved[1].IsAvailable)
	assert.Equal(t, "A1", resolved[1].Metadata["room"])
	assert.True(t, slots[1].IsAvailable, "input must not be mutated")
}
