package timeslot

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

// DefaultSlotLength is thirty minutes, in seconds.
const DefaultSlotLength int64 = 30 * 60

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// maxUnix keeps slot bounds clear of the int64 limit of time.Time's internal
// seconds, which count from year 1 rather than from 1970.
const maxUnix = math.MaxInt64 - 1<<36

// SlotID derives the id of a normalised slot: both bounds in ISO 8601 UTC
// joined with "/". Equal ranges always give equal ids.
func SlotID(r models.TimeRange) string {
	return formatISO(r.Start) + "/" + formatISO(r.End)
}

// PartitionSlotID namespaces a partitioned slot by its parent range and index.
func PartitionSlotID(parent models.TimeRange, index int) string {
	return SlotID(parent) + "#" + strconv.Itoa(index)
}

// NormalizeSlot turns a raw start/end pair into a Slot whose length is the
// whole number of seconds between the bounds.
func NormalizeSlot(raw models.RawInterval) (models.Slot, error) {
	r := raw.Range()
	if !r.Valid() {
		return models.Slot{}, invalidInterval(r.Start, r.End)
	}
	return models.Slot{
		ID:          SlotID(r),
		Start:       r.Start,
		End:         r.End,
		Length:      secondsBetween(r.Start, r.End),
		IsAvailable: true,
		Metadata:    map[string]any{},
	}, nil
}

// NormalizeSlots normalises every raw interval, failing on the first invalid one.
func NormalizeSlots(raws []models.RawInterval) ([]models.Slot, error) {
	out := make([]models.Slot, 0, len(raws))
	for i, raw := range raws {
		slot, err := NormalizeSlot(raw)
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", i, err)
		}
		out = append(out, slot)
	}
	return out, nil
}

// SlotCount is round(total / slotLength) where total is truncated to whole seconds.
func SlotCount(start, end time.Time, slotLength int64) (int, error) {
	if slotLength <= 0 {
		return 0, appErrors.Clone(appErrors.ErrInvalidConfiguration,
			fmt.Sprintf("slot length must be positive, got %d", slotLength))
	}
	if end.Before(start) {
		return 0, invalidInterval(start, end)
	}
	total := secondsBetween(start, end)
	count := total / slotLength
	if rem := total % slotLength; rem >= slotLength-rem {
		count++
	}
	room := maxUnix - abs(start.Unix())
	if total < 0 || room < 0 || count > int64(math.MaxInt) || count > room/slotLength {
		return 0, appErrors.Clone(appErrors.ErrInvalidConfiguration,
			fmt.Sprintf("range from %s cannot be cut into %d second slots", formatISO(start), slotLength))
	}
	return int(count), nil
}

// PartitionRange cuts [start, end) into contiguous slots of slotLength
// seconds. Rounding affects only how many slots are produced: every slot is
// exactly slotLength wide, so the last one may end past end.
func PartitionRange(start, end time.Time, slotLength int64) ([]models.Slot, error) {
	count, err := SlotCount(start, end, slotLength)
	if err != nil {
		return nil, err
	}
	parent := models.TimeRange{Start: start, End: end}

	slots := make([]models.Slot, count)
	for i := range slots {
		offset := int64(i) * slotLength
		slots[i] = models.Slot{
			ID:          PartitionSlotID(parent, i),
			Start:       addSeconds(start, offset),
			End:         addSeconds(start, offset+slotLength),
			Length:      slotLength,
			IsAvailable: true,
			Metadata:    map[string]any{},
		}
	}
	return slots, nil
}

// secondsBetween is end-start in whole seconds, truncated toward zero. It
// works on Unix seconds so spans past the time.Duration range stay exact.
func secondsBetween(start, end time.Time) int64 {
	total := end.Unix() - start.Unix()
	if total > 0 && end.Nanosecond() < start.Nanosecond() {
		total--
	} else if total < 0 && end.Nanosecond() > start.Nanosecond() {
		total++
	}
	return total
}

func addSeconds(t time.Time, sec int64) time.Time {
	return time.Unix(t.Unix()+sec, int64(t.Nanosecond())).In(t.Location())
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func formatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
