package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
	"github.com/KasumiMercury/primind-last-train/internal/service/timer"
)

type TimerRequest struct {
	Deadline             string `json:"deadline" binding:"required"`
	TravelMinutes        int    `json:"travel_minutes"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
	Label                string `json:"label"`
}

func (r TimerRequest) notificationsEnabled() bool {
	return r.NotificationsEnabled == nil || *r.NotificationsEnabled
}

type TimerResponse struct {
	departure.Snapshot
	Deadline             string `json:"deadline"`
	TravelMinutes        int    `json:"travel_minutes"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	Label                string `json:"label,omitempty"`
}

func newTimerResponse(snap departure.Snapshot) TimerResponse {
	return TimerResponse{
		Snapshot:             snap,
		Deadline:             snap.Config.Deadline.String(),
		TravelMinutes:        snap.Config.TravelMinutes,
		NotificationsEnabled: snap.Config.NotificationsEnabled,
		Label:                snap.Config.Label,
	}
}

type TimerListResponse struct {
	Timers []TimerResponse `json:"timers"`
	Count  int             `json:"count"`
}

type TimerHandler struct {
	timerService *timer.Service
}

func NewTimerHandler(timerService *timer.Service) *TimerHandler {
	return &TimerHandler{
		timerService: timerService,
	}
}

func (h *TimerHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/timers", h.HandleCreate)
	rg.GET("/timers", h.HandleList)
	rg.GET("/timers/:id", h.HandleGet)
	rg.PUT("/timers/:id", h.HandleUpdate)
	rg.DELETE("/timers/:id", h.HandleDelete)
}

func (h *TimerHandler) HandleCreate(c *gin.Context) {
	ctx := c.Request.Context()

	var req TimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "request validation failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	cfg, err := timer.ParseTimerConfig(req.Deadline, req.TravelMinutes, req.notificationsEnabled(), req.Label)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	snap, err := h.timerService.Create(ctx, cfg)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTimerResponse(snap))
}

func (h *TimerHandler) HandleList(c *gin.Context) {
	snaps := h.timerService.List(c.Request.Context())

	timers := make([]TimerResponse, 0, len(snaps))
	for _, snap := range snaps {
		timers = append(timers, newTimerResponse(snap))
	}

	c.JSON(http.StatusOK, TimerListResponse{
		Timers: timers,
		Count:  len(timers),
	})
}

func (h *TimerHandler) HandleGet(c *gin.Context) {
	snap, err := h.timerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTimerResponse(snap))
}

func (h *TimerHandler) HandleUpdate(c *gin.Context) {
	ctx := c.Request.Context()

	var req TimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	cfg, err := timer.ParseTimerConfig(req.Deadline, req.TravelMinutes, req.notificationsEnabled(), req.Label)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	snap, err := h.timerService.Update(ctx, c.Param("id"), cfg)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTimerResponse(snap))
}

func (h *TimerHandler) HandleDelete(c *gin.Context) {
	if err := h.timerService.Stop(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
