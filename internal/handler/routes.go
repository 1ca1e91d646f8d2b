package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timeslots-api/internal/middleware"
	"github.com/noah-isme/timeslots-api/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	SlotStores *SlotStoreHandler
	Intervals  *IntervalHandler
	Metrics    *MetricsHandler
	// Auth guards mutating routes. Nil leaves them open.
	Auth middleware.TokenValidator
}

// Register mounts every API route on group.
func (r Routes) Register(group *gin.RouterGroup) {
	writers := []gin.HandlerFunc{}
	if r.Auth != nil {
		writers = append(writers, middleware.JWT(r.Auth), middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler))
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writers...), h)
	}

	group.POST("/slots/partition", r.Intervals.Partition)
	group.POST("/intervals/overlap", r.Intervals.Overlap)

	stores := group.Group("/slot-stores")
	stores.POST("", write(r.SlotStores.Create)...)
	stores.GET("/:id", r.SlotStores.Get)
	stores.DELETE("/:id", write(r.SlotStores.Delete)...)
	stores.GET("/:id/slots", r.SlotStores.Slots)
	stores.PATCH("/:id/slots", write(r.SlotStores.PatchSlot)...)
	stores.PUT("/:id/unavailable", write(r.SlotStores.ReplaceUnavailable)...)
	stores.POST("/:id/unavailable", write(r.SlotStores.AppendUnavailable)...)
	stores.GET("/:id/conflicts", r.SlotStores.Conflicts)
	stores.GET("/:id/export", r.SlotStores.Export)

	if r.Metrics != nil {
		group.GET("/system/metrics", r.Metrics.Summary)
	}
}
