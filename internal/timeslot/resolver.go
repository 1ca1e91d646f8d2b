package timeslot

import "github.com/noah-isme/timeslots-api/internal/models"

// FilterOverlapping returns the candidates overlapping r, in candidate order.
func FilterOverlapping(r models.TimeRange, candidates []models.Slot, inclusive bool) []models.Slot {
	var out []models.Slot
	for _, c := range candidates {
		if Overlaps(r, c.Range(), inclusive) {
			out = append(out, c)
		}
	}
	return out
}

// Resolve reports whether r is available, i.e. overlaps none of unavailable.
func Resolve(r models.TimeRange, unavailable []models.Slot, inclusive bool) bool {
	for _, u := range unavailable {
		if Overlaps(r, u.Range(), inclusive) {
			return false
		}
	}
	return true
}

// ResolveAll returns a copy of slots with IsAvailable re-derived against
// unavailable. Other fields are left as they are.
func ResolveAll(slots, unavailable []models.Slot, inclusive bool) []models.Slot {
	out := make([]models.Slot, len(slots))
	for i, s := range slots {
		s.IsAvailable = Resolve(s.Range(), unavailable, inclusive)
		out[i] = s
	}
	return out
}
