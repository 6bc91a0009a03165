package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type SprintHandler struct {
	service services.SprintService
}

func NewSprintHandler(service services.SprintService) *SprintHandler {
	return &SprintHandler{service: service}
}

type sprintRequest struct {
	Name          string              `json:"name" binding:"required"`
	StartDate     string              `json:"start_date" binding:"required"`
	EndDate       string              `json:"end_date" binding:"required"`
	Goal          string              `json:"goal"`
	Status        models.SprintStatus `json:"status"`
	PlannedPoints int                 `json:"planned_points"`
}

type sprintPatchRequest struct {
	Name          *string              `json:"name"`
	StartDate     *string              `json:"start_date"`
	EndDate       *string              `json:"end_date"`
	Goal          *string              `json:"goal"`
	Status        *models.SprintStatus `json:"status"`
	Velocity      *int                 `json:"velocity"`
	PlannedPoints *int                 `json:"planned_points"`
}

// GET /projects/:id/sprints
func (h *SprintHandler) ListByProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListByProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sprint/list", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /projects/:id/current-sprint
func (h *SprintHandler) Current(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sp, err := h.service.Current(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sprint/current", err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// POST /projects/:id/sprints
func (h *SprintHandler) Create(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req sprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "sprint/create", err)
		return
	}
	start, err := parseOptionalTime(&req.StartDate)
	if err != nil {
		badRequest(c, "sprint/create", err)
		return
	}
	end, err := parseOptionalTime(&req.EndDate)
	if err != nil {
		badRequest(c, "sprint/create", err)
		return
	}
	if start == nil || end == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date are required"})
		return
	}
	sp, err := h.service.Create(c.Request.Context(), id, &models.Sprint{
		Name:          req.Name,
		StartDate:     *start,
		EndDate:       *end,
		Goal:          req.Goal,
		Status:        req.Status,
		PlannedPoints: req.PlannedPoints,
	})
	if err != nil {
		respondError(c, "sprint/create", err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// GET /sprints/:id
func (h *SprintHandler) Details(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	d, err := h.service.Details(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sprint/details", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// PATCH /sprints/:id
func (h *SprintHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req sprintPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "sprint/update", err)
		return
	}
	start, err := parseOptionalTime(req.StartDate)
	if err != nil {
		badRequest(c, "sprint/update", err)
		return
	}
	end, err := parseOptionalTime(req.EndDate)
	if err != nil {
		badRequest(c, "sprint/update", err)
		return
	}
	sp, err := h.service.Update(c.Request.Context(), id, models.SprintPatch{
		Name:          req.Name,
		StartDate:     start,
		EndDate:       end,
		Goal:          req.Goal,
		Status:        req.Status,
		Velocity:      req.Velocity,
		PlannedPoints: req.PlannedPoints,
	})
	if err != nil {
		respondError(c, "sprint/update", err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// PATCH /sprints/:id/start
func (h *SprintHandler) Start(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sp, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sprint/start", err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// PATCH /sprints/:id/complete
func (h *SprintHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sp, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sprint/complete", err)
		return
	}
	c.JSON(http.StatusOK, sp)
}
