package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/service/timer"
)

type RouteTimerRequest struct {
	From                 string `json:"from" binding:"required"`
	To                   string `json:"to" binding:"required"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}

type RouteTimerResponse struct {
	Route *domain.RouteInfo `json:"route"`
	Timer TimerResponse     `json:"timer"`
}

type RouteHandler struct {
	timerService *timer.Service
}

func NewRouteHandler(timerService *timer.Service) *RouteHandler {
	return &RouteHandler{
		timerService: timerService,
	}
}

func (h *RouteHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/routes", h.HandlePlan)
	rg.POST("/routes/timers", h.HandleCreateTimer)
}

func (h *RouteHandler) HandlePlan(c *gin.Context) {
	info, err := h.timerService.PlanRoute(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *RouteHandler) HandleCreateTimer(c *gin.Context) {
	var req RouteTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	enabled := req.NotificationsEnabled == nil || *req.NotificationsEnabled

	rt, err := h.timerService.CreateFromRoute(c.Request.Context(), req.From, req.To, enabled)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RouteTimerResponse{
		Route: rt.Route,
		Timer: newTimerResponse(rt.Timer),
	})
}
