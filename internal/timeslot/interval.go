// Package timeslot partitions time ranges into fixed-length slots and keeps
// their availability in step with a set of unavailable intervals.
package timeslot

import (
	"time"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

// NewTimeRange validates and builds a range.
func NewTimeRange(start, end time.Time) (models.TimeRange, error) {
	r := models.TimeRange{Start: start, End: end}
	if !r.Valid() {
		return models.TimeRange{}, invalidInterval(start, end)
	}
	return r, nil
}

// Overlaps reports whether a and b share at least one instant. In exclusive
// mode ranges that only touch (a.End == b.Start) do not overlap; in inclusive
// mode they do. The result for a range with Start after End follows the same
// comparison and carries no meaning.
func Overlaps(a, b models.TimeRange, inclusive bool) bool {
	if inclusive {
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func invalidInterval(start, end time.Time) error {
	return appErrors.Clone(appErrors.ErrInvalidInterval,
		"interval end "+formatISO(end)+" is before start "+formatISO(start))
}
