package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type AnalysisHandler struct {
	service services.AnalysisService
}

func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// GET /analyses?documentId&status
func (h *AnalysisHandler) List(c *gin.Context) {
	filter := models.AnalysisFilter{DocumentID: queryInt64(c, "documentId")}
	if v := queryString(c, "status"); v != nil {
		st := models.AnalysisStatus(*v)
		filter.Status = &st
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "analysis/list", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /analyses/:id
func (h *AnalysisHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "analysis/get", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PATCH /analyses/:id/save
func (h *AnalysisHandler) Save(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserActions []models.AnalysisAction `json:"user_actions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "analysis/save", err)
		return
	}
	a, err := h.service.Save(c.Request.Context(), id, req.UserActions)
	if err != nil {
		respondError(c, "analysis/save", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary  Поделиться анализом
// @Tags     Analyses
// @Accept   json
// @Produce  json
// @Param    id  path  int  true  "ID анализа"
// @Success  200  {object}  models.Analysis
// @Router   /analyses/{id}/share [post]
func (h *AnalysisHandler) Share(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserIDs []int64  `json:"user_ids"`
		Emails  []string `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "analysis/share", err)
		return
	}
	a, err := h.service.Share(c.Request.Context(), id, req.UserIDs, req.Emails)
	if err != nil {
		respondError(c, "analysis/share", err)
		return
	}
	log.Printf("[analysis][share][ok] id=%d users=%d emails=%d", id, len(req.UserIDs), len(req.Emails))
	c.JSON(http.StatusOK, a)
}

// POST /analyses/:id/generate-link
func (h *AnalysisHandler) GenerateLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	link, err := h.service.GenerateLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, "analysis/link", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"share_link": link})
}

// GET /shared-analysis/:token (публичный)
func (h *AnalysisHandler) Shared(c *gin.Context) {
	a, err := h.service.Shared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, "analysis/shared", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PATCH /analyses/:id/actions/:actionId/mark-as-task
func (h *AnalysisHandler) MarkAsTask(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectID *int64 `json:"project_id"`
	}
	_ = c.ShouldBindJSON(&req)

	a, task, err := h.service.MarkAsTask(c.Request.Context(), userID, id, c.Param("actionId"), req.ProjectID)
	if err != nil {
		respondError(c, "analysis/markAsTask", err)
		return
	}
	log.Printf("[analysis][markAsTask][ok] id=%d action=%s task_id=%d", id, c.Param("actionId"), task.ID)
	c.JSON(http.StatusOK, gin.H{"analysis": a, "task": task})
}
