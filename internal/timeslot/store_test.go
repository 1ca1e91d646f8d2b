package timeslot

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
)

func raw(r models.TimeRange) models.RawInterval {
	return models.NewRawInterval(r.Start, r.End)
}

func newMorningStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	if cfg.Start.IsZero() {
		cfg.Start, cfg.End = at(9, 0), at(10, 0)
	}
	store, err := NewStore(cfg)
	require.NoError(t, err)
	return store
}

func availability(slots []models.Slot) []bool {
	out := make([]bool, len(slots))
	for i, s := range slots {
		out[i] = s.IsAvailable
	}
	return out
}

func TestNewStoreDefaults(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})

	assert.Equal(t, DefaultSlotLength, store.SlotLength())
	assert.Equal(t, PatchExplicit, store.PatchMode())
	assert.Equal(t, uint64(1), store.Version())
	assert.Equal(t, []bool{true, true}, availability(store.Slots()))
	assert.Empty(t, store.UnavailableSlots())
}

func TestNewStoreResolvesInitialUnavailable(t *testing.T) {
	store := newMorningStore(t, StoreConfig{
		Unavailable: []models.RawInterval{raw(rng(9, 35, 9, 40))},
	})
	assert.Equal(t, []bool{true, false}, availability(store.Slots()))
	require.Len(t, store.UnavailableSlots(), 1)
}

func TestNewStoreInvalidInput(t *testing.T) {
	_, err := NewStore(StoreConfig{Start: at(9, 0), End: at(10, 0), SlotLength: -1})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidConfiguration))

	_, err = NewStore(StoreConfig{Start: at(10, 0), End: at(9, 0)})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))

	_, err = NewStore(StoreConfig{
		Start: at(9, 0), End: at(10, 0),
		Unavailable: []models.RawInterval{raw(models.TimeRange{Start: at(9, 30), End: at(9, 0)})},
	})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))
}

func TestStoreShortRangeHasNoSlots(t *testing.T) {
	store := newMorningStore(t, StoreConfig{Start: at(9, 0), End: at(9, 10), SlotLength: 1800})
	assert.Empty(t, store.Slots())

	upd, err := store.ReplaceUnavailable([]models.RawInterval{raw(rng(9, 0, 9, 5))})
	require.NoError(t, err)
	assert.Empty(t, upd.Slots)
}

func TestReplaceUnavailableEndToEnd(t *testing.T) {
	store := newMorningStore(t, StoreConfig{SlotLength: 1800})

	upd, err := store.ReplaceUnavailable([]models.RawInterval{raw(rng(9, 15, 9, 45))})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, availability(upd.Slots))
	assert.Equal(t, upd.Slots, store.Slots())
	assert.Equal(t, uint64(2), upd.Version)
	assert.True(t, upd.Applied)

	upd, err = store.ReplaceUnavailable([]models.RawInterval{raw(rng(9, 30, 9, 45))})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, availability(upd.Slots), "replace must drop the previous interval")
	require.Len(t, store.UnavailableSlots(), 1)

	upd, err = store.ReplaceUnavailable(nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, availability(upd.Slots))
	assert.Empty(t, store.UnavailableSlots())
	assert.Equal(t, uint64(4), upd.Version)
}

func TestReplaceUnavailableMarksExactlyOverlappingSlots(t *testing.T) {
	store := newMorningStore(t, StoreConfig{Start: at(8, 0), End: at(12, 0), SlotLength: 900})
	u := rng(9, 10, 10, 5)

	upd, err := store.ReplaceUnavailable([]models.RawInterval{raw(u)})
	require.NoError(t, err)
	for _, s := range upd.Slots {
		assert.Equal(t, !Overlaps(s.Range(), u, false), s.IsAvailable, "slot %s", s.ID)
	}
}

func TestTouchingIntervalHonoursInclusiveMode(t *testing.T) {
	exclusive := newMorningStore(t, StoreConfig{})
	upd, err := exclusive.ReplaceUnavailable([]models.RawInterval{raw(rng(9, 30, 9, 30))})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, availability(upd.Slots))

	inclusive := newMorningStore(t, StoreConfig{Inclusive: true})
	upd, err = inclusive.ReplaceUnavailable([]models.RawInterval{raw(rng(10, 0, 10, 30))})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, availability(upd.Slots))
}

func TestReplaceUnavailableInvalidLeavesStateUntouched(t *testing.T) {
	store := newMorningStore(t, StoreConfig{
		Unavailable: []models.RawInterval{raw(rng(9, 0, 9, 10))},
	})
	before := store.Slots()
	version := store.Version()

	_, err := store.ReplaceUnavailable([]models.RawInterval{
		raw(rng(9, 40, 9, 50)),
		raw(models.TimeRange{Start: at(9, 50), End: at(9, 40)}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))
	assert.Equal(t, before, store.Slots())
	assert.Equal(t, version, store.Version())
	assert.Len(t, store.UnavailableSlots(), 1)
}

func TestAppendUnavailableIsMonotonic(t *testing.T) {
	store := newMorningStore(t, StoreConfig{Start: at(8, 0), End: at(12, 0), SlotLength: 1800})
	_, err := store.ReplaceUnavailable([]models.RawInterval{raw(rng(8, 10, 8, 20))})
	require.NoError(t, err)
	before := store.Slots()

	upd, err := store.AppendUnavailable([]models.RawInterval{raw(rng(10, 0, 10, 45))})
	require.NoError(t, err)
	after := upd.Slots
	require.Len(t, after, len(before))
	for i := range before {
		if !before[i].IsAvailable {
			assert.False(t, after[i].IsAvailable, "slot %s became available on append", before[i].ID)
		}
	}
	assert.Equal(t, []bool{false, true, true, true, false, false, true, true}, availability(after))
	assert.Len(t, store.UnavailableSlots(), 2)
}

func TestPatchSlotUnknownIdIsNoop(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	before := store.Slots()
	version := store.Version()
	length := int64(99)

	upd, err := store.PatchSlot("no-such-slot", models.SlotPatch{Length: &length})
	require.NoError(t, err)
	assert.False(t, upd.Applied)
	assert.Equal(t, before, upd.Slots)
	assert.Equal(t, version, upd.Version)
	assert.Equal(t, before, store.Slots())
	assert.Equal(t, version, store.Version())
}

func TestPatchSlotReplacesInPlace(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	target := store.Slots()[0]

	upd, err := store.PatchSlot(target.ID, models.SlotPatch{Metadata: map[string]any{"label": "standup"}})
	require.NoError(t, err)
	assert.True(t, upd.Applied)
	slots := upd.Slots
	require.Len(t, slots, 2, "patch must not append a duplicate")
	assert.Equal(t, target.ID, slots[0].ID)
	assert.Equal(t, "standup", slots[0].Metadata["label"])
	assert.Empty(t, slots[1].Metadata)
	assert.Equal(t, uint64(2), upd.Version)
	assert.Equal(t, uint64(2), store.Version())

	got, ok := store.Slot(target.ID)
	require.True(t, ok)
	assert.Equal(t, "standup", got.Metadata["label"])
}

func TestPatchSlotRejectsInvertedResult(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	before := store.Slots()
	early, late := at(8, 0), at(11, 0)

	cases := map[string]models.SlotPatch{
		"end only":   {End: &early},
		"start only": {Start: &late},
		"both":       {Start: &late, End: &early},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := store.PatchSlot(before[0].ID, patch)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidInterval))
			assert.Equal(t, before, store.Slots())
			assert.Equal(t, uint64(1), store.Version())
		})
	}

	// Collapsing a slot to zero width is still a valid range.
	start := before[1].Start
	upd, err := store.PatchSlot(before[1].ID, models.SlotPatch{End: &start})
	require.NoError(t, err)
	assert.Equal(t, start, upd.Slots[1].End)
	assert.Equal(t, uint64(2), upd.Version)
}

func TestMutatorsReportTheirOwnVersion(t *testing.T) {
	store := newMorningStore(t, StoreConfig{Start: at(0, 0), End: at(23, 0), SlotLength: 600})
	var wg sync.WaitGroup
	versions := make(chan uint64, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			upd, err := store.AppendUnavailable([]models.RawInterval{raw(rng(i, 0, i, 5))})
			assert.NoError(t, err)
			versions <- upd.Version
			upd, err = store.PatchSlot(SlotID(rng(0, 0, 23, 0))+"#0", models.SlotPatch{Metadata: map[string]any{"i": i}})
			assert.NoError(t, err)
			assert.True(t, upd.Applied)
			versions <- upd.Version
		}(i)
	}
	wg.Wait()
	close(versions)

	seen := map[uint64]bool{}
	for v := range versions {
		assert.False(t, seen[v], "version %d reported twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, 40)
	for v := uint64(2); v <= 41; v++ {
		assert.True(t, seen[v], "version %d missing", v)
	}
}

func TestPatchSlotExplicitAppliesFalsyValues(t *testing.T) {
	store := newMorningStore(t, StoreConfig{PatchMode: PatchExplicit})
	id := store.Slots()[0].ID
	unavailable := false
	zero := int64(0)

	upd, err := store.PatchSlot(id, models.SlotPatch{IsAvailable: &unavailable, Length: &zero})
	require.NoError(t, err)
	slots := upd.Slots
	assert.False(t, slots[0].IsAvailable)
	assert.Equal(t, int64(0), slots[0].Length)
}

func TestPatchSlotIgnoreFalsySkipsFalsyValues(t *testing.T) {
	store := newMorningStore(t, StoreConfig{PatchMode: PatchIgnoreFalsy})
	id := store.Slots()[0].ID
	unavailable := false
	zero := int64(0)
	empty := ""
	label := map[string]any{}

	upd, err := store.PatchSlot(id, models.SlotPatch{ID: &empty, IsAvailable: &unavailable, Length: &zero, Metadata: label})
	require.NoError(t, err)
	assert.Equal(t, id, upd.Slots[0].ID)
	assert.True(t, upd.Slots[0].IsAvailable)
	assert.Equal(t, int64(1800), upd.Slots[0].Length)

	length := int64(900)
	upd, err = store.PatchSlot(id, models.SlotPatch{Length: &length})
	require.NoError(t, err)
	assert.Equal(t, int64(900), upd.Slots[0].Length)
}

func TestRederivationKeepsPatchedFields(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	id := store.Slots()[1].ID
	_, err := store.PatchSlot(id, models.SlotPatch{Metadata: map[string]any{"owner": "ops"}})
	require.NoError(t, err)

	upd, err := store.AppendUnavailable([]models.RawInterval{raw(rng(9, 50, 9, 55))})
	require.NoError(t, err)
	assert.False(t, upd.Slots[1].IsAvailable)
	assert.Equal(t, "ops", upd.Slots[1].Metadata["owner"])
}

func TestPatchedAvailabilityIsOverriddenByNextRederivation(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	id := store.Slots()[0].ID
	unavailable := false
	_, err := store.PatchSlot(id, models.SlotPatch{IsAvailable: &unavailable})
	require.NoError(t, err)

	upd, err := store.AppendUnavailable(nil)
	require.NoError(t, err)
	assert.True(t, upd.Slots[0].IsAvailable)
}

func TestConflicts(t *testing.T) {
	store := newMorningStore(t, StoreConfig{
		Unavailable: []models.RawInterval{raw(rng(9, 15, 9, 45)), raw(rng(9, 50, 9, 55))},
	})
	slots := store.Slots()

	first, ok := store.Conflicts(slots[0].ID)
	require.True(t, ok)
	require.Len(t, first, 1)
	assert.Equal(t, SlotID(rng(9, 15, 9, 45)), first[0].ID)

	second, ok := store.Conflicts(slots[1].ID)
	require.True(t, ok)
	assert.Len(t, second, 2)

	_, ok = store.Conflicts("missing")
	assert.False(t, ok)
}

func TestSnapshotIsConsistent(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	_, err := store.AppendUnavailable([]models.RawInterval{raw(rng(9, 40, 9, 50))})
	require.NoError(t, err)

	state := store.Snapshot()
	assert.Equal(t, uint64(2), state.Version)
	assert.Equal(t, []bool{true, false}, availability(state.Slots))
	require.Len(t, state.Unavailable, 1)

	state.Unavailable[0].Metadata["leak"] = true
	assert.NotContains(t, store.UnavailableSlots()[0].Metadata, "leak")
}

func TestReadsReturnCopies(t *testing.T) {
	store := newMorningStore(t, StoreConfig{})
	slots := store.Slots()
	slots[0].IsAvailable = false
	slots[0].Metadata["leak"] = true

	fresh := store.Slots()
	assert.True(t, fresh[0].IsAvailable)
	assert.NotContains(t, fresh[0].Metadata, "leak")
}

func TestStoreConcurrentWriters(t *testing.T) {
	store := newMorningStore(t, StoreConfig{Start: at(0, 0), End: at(23, 0), SlotLength: 600})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendUnavailable([]models.RawInterval{raw(rng(i, 0, i, 5))})
			assert.NoError(t, err)
			_, err = store.PatchSlot(store.Slots()[i].ID, models.SlotPatch{Metadata: map[string]any{"i": i}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.UnavailableSlots(), 20)
	assert.Equal(t, uint64(41), store.Version())
	for i, s := range store.Slots() {
		want := Resolve(s.Range(), store.UnavailableSlots(), false)
		assert.Equal(t, want, s.IsAvailable, "slot %d", i)
	}
}

func TestParsePatchMode(t *testing.T) {
	mode, err := ParsePatchMode("")
	require.NoError(t, err)
	assert.Equal(t, PatchExplicit, mode)

	mode, err = ParsePatchMode("Ignore_Falsy")
	require.NoError(t, err)
	assert.Equal(t, PatchIgnoreFalsy, mode)
	assert.Equal(t, "ignore_falsy", mode.String())

	_, err = ParsePatchMode("merge")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidConfiguration))
}
