package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

// KPIHandler обслуживает цели (/kpi/goals) и расчетные KPI-дашборды.
type KPIHandler struct {
	goals     services.GoalService
	dashboard services.DashboardService
}

func NewKPIHandler(goals services.GoalService, dashboard services.DashboardService) *KPIHandler {
	return &KPIHandler{goals: goals, dashboard: dashboard}
}

type goalRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Target      *float64            `json:"target" binding:"required"`
	Current     float64             `json:"current"`
	Unit        string              `json:"unit"`
	Category    models.GoalCategory `json:"category" binding:"required"`
	Deadline    *string             `json:"deadline"`
	Status      models.GoalStatus   `json:"status"`
	ProjectID   *int64              `json:"project_id"`
}

type goalPatchRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Target      *float64             `json:"target"`
	Current     *float64             `json:"current"`
	Unit        *string              `json:"unit"`
	Category    *models.GoalCategory `json:"category"`
	Deadline    *string              `json:"deadline"`
	Status      *models.GoalStatus   `json:"status"`
}

// GET /kpi/goals?category&projectId&status
func (h *KPIHandler) ListGoals(c *gin.Context) {
	filter := models.GoalFilter{ProjectID: queryInt64(c, "projectId")}
	if v := queryString(c, "category"); v != nil {
		cat := models.GoalCategory(*v)
		filter.Category = &cat
	}
	if v := queryString(c, "status"); v != nil {
		st := models.GoalStatus(*v)
		filter.Status = &st
	}
	items, err := h.goals.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "kpi/goals", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /kpi/goals
func (h *KPIHandler) CreateGoal(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kpi/createGoal", err)
		return
	}
	deadline, err := parseOptionalTime(req.Deadline)
	if err != nil {
		badRequest(c, "kpi/createGoal", err)
		return
	}
	g, err := h.goals.Create(c.Request.Context(), userID, &models.Goal{
		Name:        req.Name,
		Description: req.Description,
		Target:      *req.Target,
		Current:     req.Current,
		Unit:        req.Unit,
		Category:    req.Category,
		Deadline:    deadline,
		Status:      req.Status,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		respondError(c, "kpi/createGoal", err)
		return
	}
	log.Printf("[kpi][createGoal][ok] id=%d by=%d", g.ID, userID)
	c.JSON(http.StatusCreated, g)
}

// PATCH /kpi/goals/:id
func (h *KPIHandler) UpdateGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req goalPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kpi/updateGoal", err)
		return
	}
	deadline, err := parseOptionalTime(req.Deadline)
	if err != nil {
		badRequest(c, "kpi/updateGoal", err)
		return
	}
	g, err := h.goals.Update(c.Request.Context(), id, models.GoalPatch{
		Name:        req.Name,
		Description: req.Description,
		Target:      req.Target,
		Current:     req.Current,
		Unit:        req.Unit,
		Category:    req.Category,
		Deadline:    deadline,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, "kpi/updateGoal", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// DELETE /kpi/goals/:id (Admin, PM)
func (h *KPIHandler) DeleteGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.goals.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "kpi/deleteGoal", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /kpi/:id
func (h *KPIHandler) GetGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	g, err := h.goals.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "kpi/get", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// POST /kpi/:id/record
func (h *KPIHandler) Record(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Value *float64 `json:"value" binding:"required"`
		Note  string   `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kpi/record", err)
		return
	}
	g, err := h.goals.Record(c.Request.Context(), userID, id, *req.Value, req.Note)
	if err != nil {
		respondError(c, "kpi/record", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GET /kpi/:id/history
func (h *KPIHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.goals.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, "kpi/history", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ===== Дашборды =====

// GET /kpi/dashboard
func (h *KPIHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.KPIDashboard(c.Request.Context())
	if err != nil {
		respondError(c, "kpi/dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /kpi/project-performance
func (h *KPIHandler) ProjectPerformance(c *gin.Context) {
	items, err := h.dashboard.ProjectPerformance(c.Request.Context())
	if err != nil {
		respondError(c, "kpi/projectPerformance", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /kpi/completion-stats
func (h *KPIHandler) CompletionStats(c *gin.Context) {
	st, err := h.dashboard.CompletionStats(c.Request.Context())
	if err != nil {
		respondError(c, "kpi/completionStats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /kpi/issues
func (h *KPIHandler) Issues(c *gin.Context) {
	iss, err := h.dashboard.Issues(c.Request.Context())
	if err != nil {
		respondError(c, "kpi/issues", err)
		return
	}
	c.JSON(http.StatusOK, iss)
}

// GET /kpi/team-performance
func (h *KPIHandler) TeamPerformance(c *gin.Context) {
	items, err := h.dashboard.TeamPerformance(c.Request.Context())
	if err != nil {
		respondError(c, "kpi/teamPerformance", err)
		return
	}
	c.JSON(http.StatusOK, items)
}
