package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timeslots-api/internal/dto"
	"github.com/noah-isme/timeslots-api/internal/models"
	"github.com/noah-isme/timeslots-api/internal/timeslot"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
	"github.com/noah-isme/timeslots-api/pkg/export"
	"github.com/noah-isme/timeslots-api/pkg/jobs"
)

// SlotStoreConfig governs store defaults and limits.
type SlotStoreConfig struct {
	DefaultSlotLength int64
	MaxSlotsPerStore  int
	MaxStores         int
	StoreTTL          time.Duration
	Inclusive         bool
	PatchMode         timeslot.PatchMode
	ExportCacheTTL    time.Duration
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, subtitle ...string) ([]byte, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SlotStoreService keeps a registry of in-memory slot stores addressed by id.
type SlotStoreService struct {
	cfg       SlotStoreConfig
	sessions  *sessionRegistry
	cache     *CacheService
	metrics   *MetricsService
	csv       csvRenderer
	pdf       pdfRenderer
	purges    jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSlotStoreService wires the store registry. cache, metrics and purges may be nil.
func NewSlotStoreService(cfg SlotStoreConfig, cache *CacheService, metrics *MetricsService, purges jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *SlotStoreService {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultSlotLength <= 0 {
		cfg.DefaultSlotLength = timeslot.DefaultSlotLength
	}
	if cfg.StoreTTL <= 0 {
		cfg.StoreTTL = time.Hour
	}
	return &SlotStoreService{
		cfg:       cfg,
		sessions:  newSessionRegistry(),
		cache:     cache,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		purges:    purges,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create partitions the requested range into a new store.
func (s *SlotStoreService) Create(ctx context.Context, req dto.CreateSlotStoreRequest) (*dto.SlotStoreResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	slotLength := s.slotLength(req.SlotLength)
	if err := s.checkSlotBudget(req.StartTime.Time, req.EndTime.Time, slotLength); err != nil {
		return nil, err
	}
	inclusive := s.cfg.Inclusive
	if req.Inclusive != nil {
		inclusive = *req.Inclusive
	}
	mode := s.cfg.PatchMode
	if req.PatchMode != "" {
		parsed, err := timeslot.ParsePatchMode(req.PatchMode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	start := time.Now()
	store, err := timeslot.NewStore(timeslot.StoreConfig{
		Start:       req.StartTime.Time,
		End:         req.EndTime.Time,
		SlotLength:  slotLength,
		Unavailable: dto.RawIntervals(req.Unavailable),
		Inclusive:   inclusive,
		PatchMode:   mode,
	})
	s.metrics.ObserveStoreOperation("create", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &slotSession{id: uuid.NewString(), store: store, createdAt: now}
	sess.expiresAt.Store(now.Add(s.cfg.StoreTTL).UnixNano())
	s.sweep(now)
	if !s.sessions.Add(sess, s.cfg.MaxStores) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("slot store limit of %d reached", s.cfg.MaxStores))
	}
	s.metrics.AddSlotsGenerated(len(store.Slots()))
	s.metrics.SetActiveStores(s.sessions.Len())

	s.logger.Info("slot store created",
		zap.String("store_id", sess.id),
		zap.Time("start", req.StartTime.Time),
		zap.Time("end", req.EndTime.Time),
		zap.Int64("slot_length", slotLength),
		zap.Bool("inclusive", inclusive),
		zap.String("patch_mode", mode.String()),
	)
	return sess.snapshot(), nil
}

// Get returns a full snapshot of a store.
func (s *SlotStoreService) Get(ctx context.Context, id string) (*dto.SlotStoreResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// Slots lists the slots of a store, optionally filtered by availability.
func (s *SlotStoreService) Slots(ctx context.Context, id string, filter dto.SlotFilter) (*dto.SlotsResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	version, slots := sess.read()
	if filter.Available != nil {
		filtered := make([]models.Slot, 0, len(slots))
		for _, slot := range slots {
			if slot.IsAvailable == *filter.Available {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}
	return &dto.SlotsResponse{Version: version, Slots: slots}, nil
}

// ReplaceUnavailable swaps the unavailable set of a store and re-derives availability.
func (s *SlotStoreService) ReplaceUnavailable(ctx context.Context, id string, req dto.UnavailableRequest) (*dto.SlotsResponse, error) {
	return s.mutateUnavailable(id, "replace_unavailable", req, (*timeslot.Store).ReplaceUnavailable)
}

// AppendUnavailable adds intervals to the unavailable set of a store.
func (s *SlotStoreService) AppendUnavailable(ctx context.Context, id string, req dto.UnavailableRequest) (*dto.SlotsResponse, error) {
	return s.mutateUnavailable(id, "append_unavailable", req, (*timeslot.Store).AppendUnavailable)
}

func (s *SlotStoreService) mutateUnavailable(id, op string, req dto.UnavailableRequest, apply func(*timeslot.Store, []models.RawInterval) (timeslot.Update, error)) (*dto.SlotsResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	upd, err := apply(sess.store, dto.RawIntervals(req.Intervals))
	s.metrics.ObserveStoreOperation(op, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.touch(sess)

	s.logger.Debug("unavailable set updated",
		zap.String("store_id", id),
		zap.String("operation", op),
		zap.Int("intervals", len(req.Intervals)),
	)
	return &dto.SlotsResponse{Version: upd.Version, Slots: upd.Slots}, nil
}

// PatchSlot overlays fields onto one slot. An unknown slot id leaves the store untouched.
func (s *SlotStoreService) PatchSlot(ctx context.Context, id string, req dto.PatchSlotRequest) (*dto.SlotsResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	upd, err := sess.store.PatchSlot(req.SlotID, req.Fields)
	s.metrics.ObserveStoreOperation("patch_slot", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if upd.Applied {
		s.touch(sess)
	} else {
		s.logger.Debug("patch ignored, slot not found", zap.String("store_id", id), zap.String("slot_id", req.SlotID))
	}
	return &dto.SlotsResponse{Version: upd.Version, Slots: upd.Slots}, nil
}

// Conflicts lists the unavailable intervals that overlap the given slot.
func (s *SlotStoreService) Conflicts(ctx context.Context, id, slotID string) ([]models.Slot, error) {
	if slotID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slotId is required")
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	conflicts, ok := sess.store.Conflicts(slotID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	return conflicts, nil
}

// Delete discards a store and schedules removal of its cached exports.
func (s *SlotStoreService) Delete(ctx context.Context, id string) error {
	if _, ok := s.sessions.Remove(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "slot store not found")
	}
	s.metrics.SetActiveStores(s.sessions.Len())
	s.schedulePurge(id)
	s.logger.Info("slot store deleted", zap.String("store_id", id))
	return nil
}

// Partition previews the slots of a range without keeping a store.
func (s *SlotStoreService) Partition(ctx context.Context, req dto.PartitionRequest) ([]models.Slot, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	slotLength := s.slotLength(req.SlotLength)
	if err := s.checkSlotBudget(req.StartTime.Time, req.EndTime.Time, slotLength); err != nil {
		return nil, err
	}

	start := time.Now()
	slots, err := timeslot.PartitionRange(req.StartTime.Time, req.EndTime.Time, slotLength)
	if err == nil {
		var unavailable []models.Slot
		unavailable, err = timeslot.NormalizeSlots(dto.RawIntervals(req.Unavailable))
		if err == nil {
			slots = timeslot.ResolveAll(slots, unavailable, req.Inclusive)
		}
	}
	s.metrics.ObserveStoreOperation("partition", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.metrics.AddSlotsGenerated(len(slots))
	return slots, nil
}

// Overlap reports which candidates overlap the interval.
func (s *SlotStoreService) Overlap(ctx context.Context, req dto.OverlapRequest) (*dto.OverlapResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	target, err := timeslot.NormalizeSlot(req.Interval.Raw())
	if err != nil {
		return nil, err
	}
	candidates, err := timeslot.NormalizeSlots(dto.RawIntervals(req.Candidates))
	if err != nil {
		return nil, err
	}
	overlapping := timeslot.FilterOverlapping(target.Range(), candidates, req.Inclusive)
	if overlapping == nil {
		overlapping = []models.Slot{}
	}
	return &dto.OverlapResponse{Overlaps: len(overlapping) > 0, Overlapping: overlapping}, nil
}

// Export renders the current slots of a store. Rendered payloads are cached per store version.
func (s *SlotStoreService) Export(ctx context.Context, id string, format dto.ExportFormat) (*dto.ExportResult, error) {
	if format == "" {
		format = dto.ExportCSV
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	version, slots := sess.read()
	result := &dto.ExportResult{
		Filename:    fmt.Sprintf("slots-%s-v%d.%s", id, version, format),
		ContentType: contentType,
	}
	key := ExportKey(id, version, string(format))
	if payload, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		result.Body = payload
		result.Cached = true
		return result, nil
	}

	data := slotDataset(slots)
	var body []byte
	switch format {
	case dto.ExportPDF:
		rng := sess.store.Range()
		body, err = s.pdf.Render(data, "Slot store "+id,
			fmt.Sprintf("Range %s to %s, slot length %ds", rng.Start.UTC().Format(time.RFC3339), rng.End.UTC().Format(time.RFC3339), sess.store.SlotLength()),
			fmt.Sprintf("Version %d, %d unavailable interval(s)", version, len(sess.store.UnavailableSlots())),
		)
	default:
		body, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}
	result.Body = body

	_ = s.cache.Set(ctx, key, body, s.cfg.ExportCacheTTL)
	return result, nil
}

// Count returns the number of live stores.
func (s *SlotStoreService) Count() int {
	return s.sessions.Len()
}

// RunJanitor evicts expired stores every interval until ctx is cancelled.
func (s *SlotStoreService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(s.now().UTC()); n > 0 {
				s.logger.Info("expired slot stores evicted", zap.Int("count", n))
			}
		}
	}
}

func (s *SlotStoreService) sweep(now time.Time) int {
	expired := s.sessions.RemoveExpired(now)
	for _, id := range expired {
		s.schedulePurge(id)
	}
	if len(expired) > 0 {
		s.metrics.SetActiveStores(s.sessions.Len())
	}
	return len(expired)
}

func (s *SlotStoreService) schedulePurge(id string) {
	if s.purges == nil || !s.cache.Enabled() {
		return
	}
	if err := s.purges.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobs.TypePurgeExports, StoreID: id}); err != nil {
		s.logger.Warn("export purge not scheduled", zap.String("store_id", id), zap.Error(err))
	}
}

// PurgeExports is the job handler that drops cached exports of a removed store.
func (s *SlotStoreService) PurgeExports(ctx context.Context, job jobs.Job) error {
	return s.cache.InvalidateStore(ctx, job.StoreID)
}

func (s *SlotStoreService) session(id string) (*slotSession, error) {
	sess, ok := s.sessions.Get(id)
	if ok && s.now().UTC().After(sess.deadline()) {
		if _, removed := s.sessions.Remove(id); removed {
			s.metrics.SetActiveStores(s.sessions.Len())
			s.schedulePurge(id)
		}
		ok = false
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot store not found")
	}
	return sess, nil
}

func (s *SlotStoreService) touch(sess *slotSession) {
	sess.extend(s.now().UTC().Add(s.cfg.StoreTTL))
}

func (s *SlotStoreService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}

func (s *SlotStoreService) slotLength(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	return s.cfg.DefaultSlotLength
}

func (s *SlotStoreService) checkSlotBudget(start, end time.Time, slotLength int64) error {
	count, err := timeslot.SlotCount(start, end, slotLength)
	if err != nil {
		return err
	}
	if s.cfg.MaxSlotsPerStore > 0 && count > s.cfg.MaxSlotsPerStore {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration,
			fmt.Sprintf("range yields %d slots, limit is %d", count, s.cfg.MaxSlotsPerStore))
	}
	return nil
}

var exportContentTypes = map[dto.ExportFormat]string{
	dto.ExportCSV: "text/csv",
	dto.ExportPDF: "application/pdf",
}

var slotExportHeaders = []string{"index", "id", "start", "end", "length", "available", "metadata"}

func slotDataset(slots []models.Slot) export.Dataset {
	rows := make([]map[string]string, len(slots))
	for i, slot := range slots {
		rows[i] = map[string]string{
			"index":     strconv.Itoa(i),
			"id":        slot.ID,
			"start":     slot.Start.UTC().Format(time.RFC3339),
			"end":       slot.End.UTC().Format(time.RFC3339),
			"length":    strconv.FormatInt(slot.Length, 10),
			"available": strconv.FormatBool(slot.IsAvailable),
			"metadata":  encodeMetadata(slot.Metadata),
		}
	}
	return export.Dataset{Headers: slotExportHeaders, Rows: rows}
}

func encodeMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Sprintf("%v", meta)
	}
	return string(raw)
}

// --- Session registry ---

type slotSession struct {
	id        string
	store     *timeslot.Store
	createdAt time.Time
	expiresAt atomic.Int64
}

func (s *slotSession) read() (uint64, []models.Slot) {
	state := s.store.Snapshot()
	return state.Version, state.Slots
}

func (s *slotSession) deadline() time.Time {
	return time.Unix(0, s.expiresAt.Load()).UTC()
}

func (s *slotSession) extend(to time.Time) {
	next := to.UnixNano()
	for {
		cur := s.expiresAt.Load()
		if next <= cur || s.expiresAt.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (s *slotSession) snapshot() *dto.SlotStoreResponse {
	rng := s.store.Range()
	state := s.store.Snapshot()
	return &dto.SlotStoreResponse{
		ID:               s.id,
		StartTime:        rng.Start,
		EndTime:          rng.End,
		SlotLength:       s.store.SlotLength(),
		Inclusive:        s.store.Inclusive(),
		PatchMode:        s.store.PatchMode().String(),
		Version:          state.Version,
		Slots:            state.Slots,
		UnavailableSlots: state.Unavailable,
		CreatedAt:        s.createdAt,
		ExpiresAt:        s.deadline(),
	}
}

type sessionRegistry struct {
	mu    sync.RWMutex
	items map[string]*slotSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{items: make(map[string]*slotSession)}
}

// Add registers sess unless limit (when positive) is already reached.
func (r *sessionRegistry) Add(sess *slotSession, limit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.items) >= limit {
		return false
	}
	r.items[sess.id] = sess
	return true
}

func (r *sessionRegistry) Get(id string) (*slotSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.items[id]
	return sess, ok
}

func (r *sessionRegistry) Remove(id string) (*slotSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return sess, ok
}

// RemoveExpired drops every session past its deadline and returns their ids in sorted order.
func (r *sessionRegistry) RemoveExpired(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, sess := range r.items {
		if now.After(sess.deadline()) {
			delete(r.items, id)
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *sessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
