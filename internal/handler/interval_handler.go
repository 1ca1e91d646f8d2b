package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timeslots-api/internal/dto"
	"github.com/noah-isme/timeslots-api/internal/models"
	"github.com/noah-isme/timeslots-api/internal/service"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
	"github.com/noah-isme/timeslots-api/pkg/response"
)

type intervalCalculator interface {
	Partition(ctx context.Context, req dto.PartitionRequest) ([]models.Slot, error)
	Overlap(ctx context.Context, req dto.OverlapRequest) (*dto.OverlapResponse, error)
}

// IntervalHandler serves the stateless slot computations.
type IntervalHandler struct {
	service intervalCalculator
}

// NewIntervalHandler constructs the handler.
func NewIntervalHandler(svc *service.SlotStoreService) *IntervalHandler {
	return &IntervalHandler{service: svc}
}

// Partition godoc
// @Summary Preview the slots of a range
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.PartitionRequest true "Range definition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /slots/partition [post]
func (h *IntervalHandler) Partition(c *gin.Context) {
	var req dto.PartitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid partition payload"))
		return
	}
	slots, err := h.service.Partition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{"count": len(slots)})
}

// Overlap godoc
// @Summary Check an interval against candidates
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.OverlapRequest true "Interval and candidates"
// @Success 200 {object} response.Envelope
// @Router /intervals/overlap [post]
func (h *IntervalHandler) Overlap(c *gin.Context) {
	var req dto.OverlapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid overlap payload"))
		return
	}
	result, err := h.service.Overlap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
