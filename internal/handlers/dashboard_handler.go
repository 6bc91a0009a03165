package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metrika/internal/services"
)

type DashboardHandler struct {
	service services.DashboardService
	search  services.SearchService
}

func NewDashboardHandler(service services.DashboardService, search services.SearchService) *DashboardHandler {
	return &DashboardHandler{service: service, search: search}
}

// GET /dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "dashboard/stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /dashboard/active-projects?limit
func (h *DashboardHandler) ActiveProjects(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.ActiveProjects(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "dashboard/activeProjects", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /dashboard/upcoming-tasks?limit
func (h *DashboardHandler) UpcomingTasks(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.UpcomingTasks(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, "dashboard/upcomingTasks", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /dashboard/kpi-summary
func (h *DashboardHandler) KPISummary(c *gin.Context) {
	s, err := h.service.KPISummary(c.Request.Context())
	if err != nil {
		respondError(c, "dashboard/kpiSummary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /dashboard/risk-alerts
func (h *DashboardHandler) RiskAlerts(c *gin.Context) {
	r, err := h.service.RiskAlerts(c.Request.Context())
	if err != nil {
		respondError(c, "dashboard/riskAlerts", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary  Глобальный поиск
// @Tags     Search
// @Produce  json
// @Param    q      query  string  true   "Запрос"
// @Param    limit  query  int     false  "Лимит на группу"
// @Success  200  {object}  models.SearchResults
// @Router   /search [get]
func (h *DashboardHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	res, err := h.search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, "search", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
