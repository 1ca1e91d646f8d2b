package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timeslots-api/internal/dto"
	"github.com/noah-isme/timeslots-api/internal/middleware"
	"github.com/noah-isme/timeslots-api/internal/models"
	"github.com/noah-isme/timeslots-api/internal/service"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
	"github.com/noah-isme/timeslots-api/pkg/response"
)

type slotStoreService interface {
	Create(ctx context.Context, req dto.CreateSlotStoreRequest) (*dto.SlotStoreResponse, error)
	Get(ctx context.Context, id string) (*dto.SlotStoreResponse, error)
	Slots(ctx context.Context, id string, filter dto.SlotFilter) (*dto.SlotsResponse, error)
	ReplaceUnavailable(ctx context.Context, id string, req dto.UnavailableRequest) (*dto.SlotsResponse, error)
	AppendUnavailable(ctx context.Context, id string, req dto.UnavailableRequest) (*dto.SlotsResponse, error)
	PatchSlot(ctx context.Context, id string, req dto.PatchSlotRequest) (*dto.SlotsResponse, error)
	Conflicts(ctx context.Context, id, slotID string) ([]models.Slot, error)
	Export(ctx context.Context, id string, format dto.ExportFormat) (*dto.ExportResult, error)
	Delete(ctx context.Context, id string) error
}

// SlotStoreHandler exposes the stateful slot store endpoints.
type SlotStoreHandler struct {
	service slotStoreService
}

// NewSlotStoreHandler constructs the handler.
func NewSlotStoreHandler(svc *service.SlotStoreService) *SlotStoreHandler {
	return &SlotStoreHandler{service: svc}
}

// Create godoc
// @Summary Create a slot store
// @Description Partitions the range into slots and resolves them against the initial unavailable intervals.
// @Tags SlotStores
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotStoreRequest true "Store definition"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slot-stores [post]
func (h *SlotStoreHandler) Create(c *gin.Context) {
	var req dto.CreateSlotStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot store payload"))
		return
	}
	store, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+store.ID)
	middleware.SetStoreVersion(c, store.Version)
	response.JSON(c, http.StatusCreated, store, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a slot store snapshot
// @Tags SlotStores
// @Produce json
// @Param id path string true "Store ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /slot-stores/{id} [get]
func (h *SlotStoreHandler) Get(c *gin.Context) {
	store, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetStoreVersion(c, store.Version)
	response.JSON(c, http.StatusOK, store, middleware.ExtractMeta(c))
}

// Slots godoc
// @Summary List slots of a store
// @Tags SlotStores
// @Produce json
// @Param id path string true "Store ID"
// @Param available query bool false "Only slots with this availability"
// @Success 200 {object} response.Envelope
// @Router /slot-stores/{id}/slots [get]
func (h *SlotStoreHandler) Slots(c *gin.Context) {
	var filter dto.SlotFilter
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "available must be true or false"))
			return
		}
		filter.Available = &available
	}
	h.respondSlots(c, func(ctx context.Context, id string) (*dto.SlotsResponse, error) {
		return h.service.Slots(ctx, id, filter)
	})
}

// ReplaceUnavailable godoc
// @Summary Replace the unavailable intervals of a store
// @Tags SlotStores
// @Accept json
// @Produce json
// @Param id path string true "Store ID"
// @Param payload body dto.UnavailableRequest true "Intervals"
// @Success 200 {object} response.Envelope
// @Router /slot-stores/{id}/unavailable [put]
func (h *SlotStoreHandler) ReplaceUnavailable(c *gin.Context) {
	var req dto.UnavailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unavailable payload"))
		return
	}
	h.respondSlots(c, func(ctx context.Context, id string) (*dto.SlotsResponse, error) {
		return h.service.ReplaceUnavailable(ctx, id, req)
	})
}

// AppendUnavailable godoc
// @Summary Append unavailable intervals to a store
// @Tags SlotStores
// @Accept json
// @Produce json
// @Param id path string true "Store ID"
// @Param payload body dto.UnavailableRequest true "Intervals"
// @Success 200 {object} response.Envelope
// @Router /slot-stores/{id}/unavailable [post]
func (h *SlotStoreHandler) AppendUnavailable(c *gin.Context) {
	var req dto.UnavailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unavailable payload"))
		return
	}
	h.respondSlots(c, func(ctx context.Context, id string) (*dto.SlotsResponse, error) {
		return h.service.AppendUnavailable(ctx, id, req)
	})
}

// PatchSlot godoc
// @Summary Patch one slot of a store
// @Description Unknown slot ids leave the store unchanged.
// @Tags SlotStores
// @Accept json
// @Produce json
// @Param id path string true "Store ID"
// @Param payload body dto.PatchSlotRequest true "Slot patch"
// @Success 200 {object} response.Envelope
// @Router /slot-stores/{id}/slots [patch]
func (h *SlotStoreHandler) PatchSlot(c *gin.Context) {
	var req dto.PatchSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot patch"))
		return
	}
	h.respondSlots(c, func(ctx context.Context, id string) (*dto.SlotsResponse, error) {
		return h.service.PatchSlot(ctx, id, req)
	})
}

// Conflicts godoc
// @Summary List unavailable intervals overlapping a slot
// @Tags SlotStores
// @Produce json
// @Param id path string true "Store ID"
// @Param slotId query string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /slot-stores/{id}/conflicts [get]
func (h *SlotStoreHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.Conflicts(c.Request.Context(), c.Param("id"), c.Query("slotId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts)
}

// Export godoc
// @Summary Download the slots of a store
// @Tags SlotStores
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Store ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /slot-stores/{id}/export [get]
func (h *SlotStoreHandler) Export(c *gin.Context) {
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Delete godoc
// @Summary Discard a slot store
// @Tags SlotStores
// @Param id path string true "Store ID"
// @Success 204
// @Router /slot-stores/{id} [delete]
func (h *SlotStoreHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SlotStoreHandler) respondSlots(c *gin.Context, fn func(ctx context.Context, id string) (*dto.SlotsResponse, error)) {
	result, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetStoreVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}
