package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type ProjectHandler struct {
	service   services.ProjectService
	documents *services.DocumentService
	reports   services.ReportService
}

func NewProjectHandler(service services.ProjectService, documents *services.DocumentService, reports services.ReportService) *ProjectHandler {
	return &ProjectHandler{service: service, documents: documents, reports: reports}
}

type projectRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Methodology models.Methodology   `json:"methodology"`
	StartDate   *string              `json:"start_date"`
	EndDate     *string              `json:"end_date"`
	Budget      float64              `json:"budget"`
	Color       string               `json:"color"`
	MemberIDs   []int64              `json:"member_ids"`
}

type projectPatchRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
	Methodology *models.Methodology   `json:"methodology"`
	Progress    *int                  `json:"progress"`
	StartDate   *string               `json:"start_date"`
	EndDate     *string               `json:"end_date"`
	Budget      *float64              `json:"budget"`
	BudgetUsed  *float64              `json:"budget_used"`
	Color       *string               `json:"color"`
}

// @Summary  Список проектов
// @Tags     Projects
// @Produce  json
// @Param    search       query  string  false  "Поиск по названию"
// @Param    status       query  string  false  "Статус"
// @Param    methodology  query  string  false  "Методология"
// @Param    page         query  int     false  "Страница"
// @Param    limit        query  int     false  "Размер страницы"
// @Success  200  {object}  models.Page[models.Project]
// @Router   /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	filter := models.ProjectFilter{Search: queryString(c, "search")}
	if v := queryString(c, "status"); v != nil {
		st := models.ProjectStatus(*v)
		filter.Status = &st
	}
	if v := queryString(c, "methodology"); v != nil {
		m := models.Methodology(*v)
		filter.Methodology = &m
	}
	page, limit := pageParams(c)
	res, err := h.service.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, "project/list", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "project/getByID", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary  Создать проект
// @Tags     Projects
// @Accept   json
// @Produce  json
// @Param    body  body      projectRequest  true  "Проект"
// @Success  201   {object}  models.Project
// @Router   /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	log.Printf("[project][create] call by userID=%d role=%d", userID, roleID)

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "project/create", err)
		return
	}
	start, err := parseOptionalTime(req.StartDate)
	if err != nil {
		badRequest(c, "project/create", err)
		return
	}
	end, err := parseOptionalTime(req.EndDate)
	if err != nil {
		badRequest(c, "project/create", err)
		return
	}
	p := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Methodology: req.Methodology,
		Budget:      req.Budget,
		Color:       req.Color,
		MemberIDs:   req.MemberIDs,
	}
	if start != nil {
		p.StartDate = *start
	}
	if end != nil {
		p.EndDate = *end
	}
	created, err := h.service.Create(c.Request.Context(), userID, p)
	if err != nil {
		respondError(c, "project/create", err)
		return
	}
	log.Printf("[project][create][ok] id=%d title=%q", created.ID, created.Title)
	c.JSON(http.StatusCreated, created)
}

// PATCH /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req projectPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "project/update", err)
		return
	}
	start, err := parseOptionalTime(req.StartDate)
	if err != nil {
		badRequest(c, "project/update", err)
		return
	}
	end, err := parseOptionalTime(req.EndDate)
	if err != nil {
		badRequest(c, "project/update", err)
		return
	}
	p, err := h.service.Update(c.Request.Context(), userID, id, models.ProjectPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Methodology: req.Methodology,
		Progress:    req.Progress,
		StartDate:   start,
		EndDate:     end,
		Budget:      req.Budget,
		BudgetUsed:  req.BudgetUsed,
		Color:       req.Color,
	})
	if err != nil {
		respondError(c, "project/update", err)
		return
	}
	log.Printf("[project][update][ok] id=%d status=%q by=%d", id, p.Status, userID)
	c.JSON(http.StatusOK, p)
}

// DELETE /projects/:id (Admin, PM)
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "project/delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /projects/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "project/stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /projects/:id/timeline
func (h *ProjectHandler) Timeline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tl, err := h.service.Timeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, "project/timeline", err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// GET /projects/:id/tasks?grouped=status
func (h *ProjectHandler) Tasks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tasks, err := h.service.Tasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, "project/tasks", err)
		return
	}
	if c.Query("grouped") != "status" {
		if tasks == nil {
			tasks = []models.Task{}
		}
		c.JSON(http.StatusOK, tasks)
		return
	}
	grouped := make(map[models.TaskStatus][]models.Task, len(models.BoardStatuses)+1)
	for _, st := range models.BoardStatuses {
		grouped[st] = []models.Task{}
	}
	for _, t := range tasks {
		grouped[t.Status] = append(grouped[t.Status], t)
	}
	c.JSON(http.StatusOK, grouped)
}

// GET /projects/:id/members
func (h *ProjectHandler) Members(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	m, err := h.service.Members(c.Request.Context(), id)
	if err != nil {
		respondError(c, "project/members", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// POST /projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "project/addMember", err)
		return
	}
	p, err := h.service.AddMember(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, "project/addMember", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	p, err := h.service.RemoveMember(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, "project/removeMember", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /projects/:id/documents
func (h *ProjectHandler) Documents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, "project/documents", err)
		return
	}
	docs, err := h.documents.List(c.Request.Context(), &id)
	if err != nil {
		respondError(c, "project/documents", err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GET /projects/:id/kpis
func (h *ProjectHandler) KPIs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	rep, err := h.service.KPIs(c.Request.Context(), id)
	if err != nil {
		respondError(c, "project/kpis", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// POST /projects/:id/kpis
func (h *ProjectHandler) AddKPI(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var kpi models.ProjectKPI
	if err := c.ShouldBindJSON(&kpi); err != nil {
		badRequest(c, "project/addKPI", err)
		return
	}
	p, err := h.service.AddKPI(c.Request.Context(), id, kpi)
	if err != nil {
		respondError(c, "project/addKPI", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary  PDF-отчет по проекту
// @Tags     Projects
// @Produce  application/pdf
// @Param    id  path  int  true  "ID проекта"
// @Success  200  {file}  file
// @Failure  404  {object}  map[string]string
// @Router   /projects/{id}/report [get]
func (h *ProjectHandler) Report(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.reports.ProjectReport(c.Request.Context(), id, &buf); err != nil {
		respondError(c, "project/report", err)
		return
	}
	name := fmt.Sprintf("project-%d-report.pdf", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ReplaceAll(name, `"`, "")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
