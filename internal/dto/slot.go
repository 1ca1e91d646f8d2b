package dto

import (
	"time"

	"github.com/noah-isme/timeslots-api/internal/models"
)

// IntervalRequest is a raw start/end pair. Each bound is an RFC 3339 string
// or epoch milliseconds.
type IntervalRequest struct {
	StartTime models.Instant `json:"startTime" validate:"required"`
	EndTime   models.Instant `json:"endTime" validate:"required"`
}

// Raw converts the request into the engine's raw interval.
func (r IntervalRequest) Raw() models.RawInterval {
	return models.RawInterval{StartTime: r.StartTime, EndTime: r.EndTime}
}

// RawIntervals converts a batch of interval requests.
func RawIntervals(items []IntervalRequest) []models.RawInterval {
	out := make([]models.RawInterval, len(items))
	for i, item := range items {
		out[i] = item.Raw()
	}
	return out
}

// CreateSlotStoreRequest opens a new in-memory slot store.
type CreateSlotStoreRequest struct {
	StartTime   models.Instant    `json:"startTime" validate:"required"`
	EndTime     models.Instant    `json:"endTime" validate:"required"`
	SlotLength  int64             `json:"slotLength" validate:"omitempty,min=1"`
	Unavailable []IntervalRequest `json:"unavailable" validate:"omitempty,dive"`
	Inclusive   *bool             `json:"inclusive"`
	PatchMode   string            `json:"patchMode" validate:"omitempty,oneof=explicit ignore_falsy"`
}

// PartitionRequest previews a partition without keeping any state.
type PartitionRequest struct {
	StartTime   models.Instant    `json:"startTime" validate:"required"`
	EndTime     models.Instant    `json:"endTime" validate:"required"`
	SlotLength  int64             `json:"slotLength" validate:"omitempty,min=1"`
	Unavailable []IntervalRequest `json:"unavailable" validate:"omitempty,dive"`
	Inclusive   bool              `json:"inclusive"`
}

// UnavailableRequest carries intervals for replace or append.
type UnavailableRequest struct {
	Intervals []IntervalRequest `json:"intervals" validate:"dive"`
}

// PatchSlotRequest targets one slot by id. Slot ids contain "/" so they
// travel in the body rather than the path.
type PatchSlotRequest struct {
	SlotID string           `json:"slotId" validate:"required"`
	Fields models.SlotPatch `json:"fields"`
}

// OverlapRequest compares one interval against a set of candidates.
type OverlapRequest struct {
	Interval   IntervalRequest   `json:"interval" validate:"required"`
	Candidates []IntervalRequest `json:"candidates" validate:"required,min=1,dive"`
	Inclusive  bool              `json:"inclusive"`
}

// OverlapResponse reports which candidates overlap.
type OverlapResponse struct {
	Overlaps    bool          `json:"overlaps"`
	Overlapping []models.Slot `json:"overlapping"`
}

// SlotStoreResponse is a snapshot of a store.
type SlotStoreResponse struct {
	ID               string        `json:"id"`
	StartTime        time.Time     `json:"startTime"`
	EndTime          time.Time     `json:"endTime"`
	SlotLength       int64         `json:"slotLength"`
	Inclusive        bool          `json:"inclusive"`
	PatchMode        string        `json:"patchMode"`
	Version          uint64        `json:"version"`
	Slots            []models.Slot `json:"slots"`
	UnavailableSlots []models.Slot `json:"unavailableSlots"`
	CreatedAt        time.Time     `json:"createdAt"`
	ExpiresAt        time.Time     `json:"expiresAt"`
}

// SlotsResponse is returned by mutators: the updated sequence and the version it reflects.
type SlotsResponse struct {
	Version uint64        `json:"version"`
	Slots   []models.Slot `json:"slots"`
}

// SlotFilter narrows slot reads.
type SlotFilter struct {
	Available *bool
}

// ExportFormat names a rendered export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Cached      bool
}
