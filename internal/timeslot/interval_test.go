package timeslot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func rng(h1, m1, h2, m2 int) models.TimeRange {
	return models.TimeRange{Start: at(h1, m1), End: at(h2, m2)}
}

func TestOverlapsTouchingBoundary(t *testing.T) {
	a := rng(9, 0, 9, 30)
	b := rng(9, 30, 10, 0)

	assert.False(t, Overlaps(a, b, false))
	assert.False(t, Overlaps(b, a, false))
	assert.True(t, Overlaps(a, b, true))
	assert.True(t, Overlaps(b, a, true))
}

func TestOverlapsCases(t *testing.T) {
	cases := []struct {
		name      string
		a, b      models.TimeRange
		exclusive bool
		inclusive bool
	}{
		{"interior", rng(9, 0, 9, 30), rng(9, 15, 9, 45), true, true},
		{"contained", rng(9, 0, 10, 0), rng(9, 15, 9, 20), true, true},
		{"identical", rng(9, 0, 9, 30), rng(9, 0, 9, 30), true, true},
		{"disjoint", rng(9, 0, 9, 30), rng(11, 0, 12, 0), false, false},
		{"zero width inside", rng(9, 0, 10, 0), rng(9, 30, 9, 30), true, true},
		{"zero width on edge", rng(9, 0, 10, 0), rng(10, 0, 10, 0), false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exclusive, Overlaps(tc.a, tc.b, false))
			assert.Equal(t, tc.inclusive, Overlaps(tc.a, tc.b, true))
		})
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	ranges := []models.TimeRange{
		rng(8, 0, 9, 0), rng(8, 30, 9, 30), rng(9, 0, 9, 0), rng(9, 0, 10, 0),
		rng(9, 15, 9, 45), rng(10, 0, 11, 0), rng(7, 0, 12, 0),
	}
	for _, a := range ranges {
		for _, b := range ranges {
			for _, inclusive := range []bool{false, true} {
				assert.Equal(t, Overlaps(a, b, inclusive), Overlaps(b, a, inclusive),
					"a=%v b=%v inclusive=%v", a, b, inclusive)
			}
		}
	}
}

func TestNewTimeRangeRejectsInverted(t *testing.T) {
	_, err := NewTimeRange(at(10, 0), at(9, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))

	r, err := NewTimeRange(at(9, 0), at(9, 0))
	require.NoError(t, err)
	assert.Zero(t, r.Duration())
}
