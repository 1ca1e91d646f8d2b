package timeslot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

// PatchMode selects how PatchSlot treats zero values in a patch.
type PatchMode int

const (
	// PatchExplicit applies every field present in the patch, zero values included.
	PatchExplicit PatchMode = iota
	// PatchIgnoreFalsy skips present fields holding "", 0 or false. Times and
	// non-nil metadata maps are always applied.
	PatchIgnoreFalsy
)

// String returns the configuration name of the mode.
func (m PatchMode) String() string {
	switch m {
	case PatchIgnoreFalsy:
		return "ignore_falsy"
	default:
		return "explicit"
	}
}

// ParsePatchMode maps a configuration value onto a PatchMode. Empty means explicit.
func ParsePatchMode(raw string) (PatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "explicit":
		return PatchExplicit, nil
	case "ignore_falsy", "ignore-falsy":
		return PatchIgnoreFalsy, nil
	default:
		return PatchExplicit, appErrors.Clone(appErrors.ErrInvalidConfiguration,
			fmt.Sprintf("unknown patch mode %q", raw))
	}
}

// StoreConfig describes the range a Store partitions and how it behaves.
type StoreConfig struct {
	Start       time.Time
	End         time.Time
	SlotLength  int64
	Unavailable []models.RawInterval
	Inclusive   bool
	PatchMode   PatchMode
}

// Store holds the current slots and unavailable intervals. Every mutator
// re-derives availability before it returns, so readers never see stale
// flags. Methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	rng         models.TimeRange
	slotLength  int64
	inclusive   bool
	patchMode   PatchMode
	slots       []models.Slot
	unavailable []models.Slot
	version     uint64
}

// NewStore partitions the configured range and resolves it against the
// initial unavailable intervals. A zero SlotLength falls back to DefaultSlotLength.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.SlotLength == 0 {
		cfg.SlotLength = DefaultSlotLength
	}
	slots, err := PartitionRange(cfg.Start, cfg.End, cfg.SlotLength)
	if err != nil {
		return nil, err
	}
	unavailable, err := NormalizeSlots(cfg.Unavailable)
	if err != nil {
		return nil, err
	}
	return &Store{
		rng:         models.TimeRange{Start: cfg.Start, End: cfg.End},
		slotLength:  cfg.SlotLength,
		inclusive:   cfg.Inclusive,
		patchMode:   cfg.PatchMode,
		slots:       ResolveAll(slots, unavailable, cfg.Inclusive),
		unavailable: unavailable,
		version:     1,
	}, nil
}

// Range returns the overall range the store was built from.
func (s *Store) Range() models.TimeRange {
	return s.rng
}

// SlotLength returns the configured slot length in seconds.
func (s *Store) SlotLength() int64 {
	return s.slotLength
}

// Inclusive reports whether touching intervals count as overlapping.
func (s *Store) Inclusive() bool {
	return s.inclusive
}

// PatchMode returns the configured patch mode.
func (s *Store) PatchMode() PatchMode {
	return s.patchMode
}

// Version increments on every change of state, starting at 1.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Slots returns the current slots in partition order.
func (s *Store) Slots() []models.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlots(s.slots)
}

// State is a consistent copy of a store at one version.
type State struct {
	Slots       []models.Slot
	Unavailable []models.Slot
	Version     uint64
}

// Snapshot copies slots, unavailable intervals and version under one lock.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Slots:       cloneSlots(s.slots),
		Unavailable: cloneSlots(s.unavailable),
		Version:     s.version,
	}
}

// UnavailableSlots returns the current unavailable intervals.
func (s *Store) UnavailableSlots() []models.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlots(s.unavailable)
}

// Slot looks up a slot by id.
func (s *Store) Slot(id string) (models.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.slots[i].Clone(), true
	}
	return models.Slot{}, false
}

// Conflicts returns the unavailable intervals overlapping the slot with id.
func (s *Store) Conflicts(id string) ([]models.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return cloneSlots(FilterOverlapping(s.slots[i].Range(), s.unavailable, s.inclusive)), true
}

// Update is the state a mutator left behind, read under the lock that applied it.
type Update struct {
	Slots   []models.Slot
	Version uint64
	// Applied is false only when PatchSlot found no slot with the given id.
	Applied bool
}

// ReplaceUnavailable discards the unavailable intervals, installs the
// normalised raw intervals and re-derives every slot. An invalid interval
// leaves the store untouched.
func (s *Store) ReplaceUnavailable(raws []models.RawInterval) (Update, error) {
	next, err := NormalizeSlots(raws)
	if err != nil {
		return Update{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installUnavailable(next)
	return s.update(true), nil
}

// AppendUnavailable adds the normalised raw intervals to the existing ones
// and re-derives every slot. No slot becomes available through an append.
func (s *Store) AppendUnavailable(raws []models.RawInterval) (Update, error) {
	added, err := NormalizeSlots(raws)
	if err != nil {
		return Update{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.Slot, 0, len(s.unavailable)+len(added))
	next = append(next, s.unavailable...)
	next = append(next, added...)
	s.installUnavailable(next)
	return s.update(true), nil
}

// PatchSlot overlays patch onto the slot with id and replaces it in place.
// An unknown id is a no-op: the unchanged slots come back with Applied false.
// A patch whose resulting End is before its Start fails with INVALID_INTERVAL
// and changes nothing.
func (s *Store) PatchSlot(id string, patch models.SlotPatch) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return s.update(false), nil
	}
	patched := applyPatch(s.slots[i].Clone(), patch, s.patchMode)
	if patched.End.Before(patched.Start) {
		return Update{}, invalidInterval(patched.Start, patched.End)
	}
	next := make([]models.Slot, len(s.slots))
	copy(next, s.slots)
	next[i] = patched
	s.slots = next
	s.version++
	return s.update(true), nil
}

func (s *Store) update(applied bool) Update {
	return Update{Slots: cloneSlots(s.slots), Version: s.version, Applied: applied}
}

func (s *Store) installUnavailable(next []models.Slot) {
	s.unavailable = next
	s.slots = ResolveAll(s.slots, next, s.inclusive)
	s.version++
}

func (s *Store) indexOf(id string) int {
	for i := range s.slots {
		if s.slots[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(slot models.Slot, p models.SlotPatch, mode PatchMode) models.Slot {
	skipFalsy := mode == PatchIgnoreFalsy
	if p.ID != nil && !(skipFalsy && *p.ID == "") {
		slot.ID = *p.ID
	}
	if p.Start != nil {
		slot.Start = *p.Start
	}
	if p.End != nil {
		slot.End = *p.End
	}
	if p.Length != nil && !(skipFalsy && *p.Length == 0) {
		slot.Length = *p.Length
	}
	if p.IsAvailable != nil && !(skipFalsy && !*p.IsAvailable) {
		slot.IsAvailable = *p.IsAvailable
	}
	if p.Metadata != nil {
		slot.Metadata = models.Slot{Metadata: p.Metadata}.Clone().Metadata
	}
	return slot
}

func cloneSlots(in []models.Slot) []models.Slot {
	out := make([]models.Slot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
