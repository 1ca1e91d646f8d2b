package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeRange is a pair of instants. It is valid when End is not before Start.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether End >= Start.
func (r TimeRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Instant is a point in time accepted either as an RFC 3339 string or as a
// number of milliseconds since the Unix epoch.
type Instant struct {
	time.Time
}

// NewInstant wraps t.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t}
}

// InstantFromMillis builds an Instant from a Unix millisecond timestamp.
func InstantFromMillis(ms int64) Instant {
	return Instant{Time: time.UnixMilli(ms).UTC()}
}

// UnmarshalJSON decodes a string or a numeric timestamp.
func (i *Instant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		i.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("instant %q: %w", raw, err)
		}
		i.Time = t
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("instant %s: expected RFC 3339 string or epoch milliseconds", data)
	}
	if !(ms >= -(1<<63) && ms < 1<<63) {
		return fmt.Errorf("instant %s: epoch milliseconds out of range", data)
	}
	*i = InstantFromMillis(int64(ms))
	return nil
}

// MarshalJSON encodes the instant as an RFC 3339 string.
func (i Instant) MarshalJSON() ([]byte, error) {
	return i.Time.MarshalJSON()
}

// RawInterval is an unnormalised start/end pair supplied by callers.
type RawInterval struct {
	StartTime Instant `json:"start_time"`
	EndTime   Instant `json:"end_time"`
}

// NewRawInterval builds a RawInterval from two times.
func NewRawInterval(start, end time.Time) RawInterval {
	return RawInterval{StartTime: NewInstant(start), EndTime: NewInstant(end)}
}

// Range returns the interval as a TimeRange.
func (r RawInterval) Range() TimeRange {
	return TimeRange{Start: r.StartTime.Time, End: r.EndTime.Time}
}

// Slot is one discretised unit of schedulable time. Unavailable intervals use
// the same shape; only their range is consulted.
type Slot struct {
	ID          string         `json:"id"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Length      int64          `json:"length"`
	IsAvailable bool           `json:"is_available"`
	Metadata    map[string]any `json:"metadata"`
}

// Range returns the slot bounds.
func (s Slot) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// Clone returns a copy whose metadata map is not shared with s.
func (s Slot) Clone() Slot {
	out := s
	if s.Metadata != nil {
		out.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SlotPatch is a partial update; nil fields are absent.
type SlotPatch struct {
	ID          *string        `json:"id,omitempty"`
	Start       *time.Time     `json:"start,omitempty"`
	End         *time.Time     `json:"end,omitempty"`
	Length      *int64         `json:"length,omitempty"`
	IsAvailable *bool          `json:"is_available,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Empty reports whether no field is present.
func (p SlotPatch) Empty() bool {
	return p.ID == nil && p.Start == nil && p.End == nil && p.Length == nil && p.IsAvailable == nil && p.Metadata == nil
}
