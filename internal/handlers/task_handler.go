package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type TaskHandler struct {
	service  services.TaskService
	analyses services.AnalysisService
}

func NewTaskHandler(service services.TaskService, analyses services.AnalysisService) *TaskHandler {
	return &TaskHandler{service: service, analyses: analyses}
}

type taskRequest struct {
	Title          string              `json:"title" binding:"required"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	ProjectID      int64               `json:"project_id" binding:"required"`
	SprintID       *int64              `json:"sprint_id"`
	AssigneeID     *int64              `json:"assignee_id"`
	DueDate        *string             `json:"due_date"` // RFC3339 или YYYY-MM-DD
	EstimatedHours float64             `json:"estimated_hours"`
	Tags           []string            `json:"tags"`
}

func (r taskRequest) toModel() (*models.Task, error) {
	due, err := parseOptionalTime(r.DueDate)
	if err != nil {
		return nil, err
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Task{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		ProjectID:      r.ProjectID,
		SprintID:       r.SprintID,
		AssigneeID:     r.AssigneeID,
		DueDate:        due,
		EstimatedHours: r.EstimatedHours,
		Tags:           tags,
	}, nil
}

type taskPatchRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Status         *models.TaskStatus   `json:"status"`
	Priority       *models.TaskPriority `json:"priority"`
	AssigneeID     *int64               `json:"assignee_id"`
	SprintID       *int64               `json:"sprint_id"`
	DueDate        *string              `json:"due_date"` // "" снимает срок
	EstimatedHours *float64             `json:"estimated_hours"`
	LoggedHours    *float64             `json:"logged_hours"`
	Tags           []string             `json:"tags"`
}

func (r taskPatchRequest) toPatch() (models.TaskPatch, error) {
	p := models.TaskPatch{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		AssigneeID:     r.AssigneeID,
		SprintID:       r.SprintID,
		EstimatedHours: r.EstimatedHours,
		LoggedHours:    r.LoggedHours,
		Tags:           r.Tags,
	}
	if r.DueDate != nil {
		if *r.DueDate == "" {
			p.ClearDueDate = true
			return p, nil
		}
		due, err := parseOptionalTime(r.DueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = due
	}
	return p, nil
}

// @Summary  Создать задачу
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    body  body      taskRequest  true  "Задача"
// @Success  201   {object}  models.Task
// @Router   /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	log.Printf("[task][create] call by userID=%d role=%d", userID, roleID)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/create", err)
		return
	}
	task, err := req.toModel()
	if err != nil {
		badRequest(c, "task/create", err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), userID, task)
	if err != nil {
		respondError(c, "task/create", err)
		return
	}
	log.Printf("[task][create][ok] id=%d project_id=%d", created.ID, created.ProjectID)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "task/getByID", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary  Список задач
// @Tags     Tasks
// @Produce  json
// @Param    search     query  string  false  "Поиск"
// @Param    status     query  string  false  "Статус"
// @Param    priority   query  string  false  "Приоритет"
// @Param    projectId  query  int     false  "Проект"
// @Param    page       query  int     false  "Страница"
// @Param    limit      query  int     false  "Размер страницы"
// @Success  200  {object}  models.Page[models.Task]
// @Router   /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	log.Printf("[task][list] call by userID=%d q=%v", userID, c.Request.URL.RawQuery)

	filter := models.TaskFilter{
		Search:     queryString(c, "search"),
		ProjectID:  queryInt64(c, "projectId"),
		AssigneeID: queryInt64(c, "assigneeId"),
		SprintID:   queryInt64(c, "sprintId"),
	}
	if v := queryString(c, "status"); v != nil {
		st := models.TaskStatus(*v)
		filter.Status = &st
	}
	if v := queryString(c, "priority"); v != nil {
		pr := models.TaskPriority(*v)
		filter.Priority = &pr
	}
	page, limit := pageParams(c)
	res, err := h.service.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, "task/list", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary  Обновить задачу
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    id    path      int               true  "ID задачи"
// @Param    body  body      taskPatchRequest  true  "Изменения"
// @Success  200   {object}  models.Task
// @Router   /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/update", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		badRequest(c, "task/update", err)
		return
	}
	task, err := h.service.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, "task/update", err)
		return
	}
	log.Printf("[task][update][ok] id=%d status=%q by=%d", id, task.Status, userID)
	c.JSON(http.StatusOK, task)
}

// PATCH /tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/status", err)
		return
	}
	task, err := h.service.UpdateStatus(c.Request.Context(), userID, id, req.Status)
	if err != nil {
		respondError(c, "task/status", err)
		return
	}
	log.Printf("[task][status][ok] id=%d -> %q by=%d", id, task.Status, userID)
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "task/delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /tasks/stats/by-status
func (h *TaskHandler) StatsByStatus(c *gin.Context) {
	counts, err := h.service.StatsByStatus(c.Request.Context(), queryInt64(c, "projectId"))
	if err != nil {
		respondError(c, "task/stats", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// PATCH /projects/:id/tasks/reorder
func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Items []models.ReorderItem `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/reorder", err)
		return
	}
	if err := h.service.Reorder(c.Request.Context(), userID, projectID, req.Items); err != nil {
		respondError(c, "task/reorder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(req.Items)})
}

// POST /tasks/bulk
func (h *TaskHandler) Bulk(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req struct {
		AnalysisID int64  `json:"analysis_id" binding:"required"`
		ProjectID  *int64 `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/bulk", err)
		return
	}
	tasks, err := h.analyses.BulkTasks(c.Request.Context(), userID, req.AnalysisID, req.ProjectID)
	if err != nil {
		respondError(c, "task/bulk", err)
		return
	}
	log.Printf("[task][bulk][ok] analysis_id=%d created=%d", req.AnalysisID, len(tasks))
	c.JSON(http.StatusCreated, tasks)
}

// GET /tasks/:id/comments
func (h *TaskHandler) ListComments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListComments(c.Request.Context(), id)
	if err != nil {
		respondError(c, "task/comments", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/comment", err)
		return
	}
	cm, err := h.service.AddComment(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		respondError(c, "task/comment", err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// GET /tasks/:id/time-logs
func (h *TaskHandler) ListTimeLogs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListTimeLogs(c.Request.Context(), id)
	if err != nil {
		respondError(c, "task/timelogs", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /tasks/:id/time-logs
func (h *TaskHandler) LogTime(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Hours float64 `json:"hours" binding:"required"`
		Note  string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/timelog", err)
		return
	}
	tl, err := h.service.LogTime(c.Request.Context(), userID, id, req.Hours, req.Note)
	if err != nil {
		respondError(c, "task/timelog", err)
		return
	}
	c.JSON(http.StatusCreated, tl)
}

// GET /tasks/:id/activity
func (h *TaskHandler) Activity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Activity(c.Request.Context(), id)
	if err != nil {
		respondError(c, "task/activity", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary  Прикрепить файл
// @Tags     Tasks
// @Accept   multipart/form-data
// @Produce  json
// @Param    id    path      int   true  "ID задачи"
// @Param    file  formData  file  true  "Файл"
// @Success  201   {object}  models.Attachment
// @Router   /tasks/{id}/attachments [post]
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "task/attachment", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, "task/attachment/open", err)
		return
	}
	defer f.Close()

	att, err := h.service.AddAttachment(c.Request.Context(), userID, id, fh.Filename, f, fh.Size)
	if err != nil {
		respondError(c, "task/attachment", err)
		return
	}
	log.Printf("[task][attachment][ok] task_id=%d name=%q size=%d", id, att.Name, att.Size)
	c.JSON(http.StatusCreated, att)
}

// POST /tasks/:id/projects
func (h *TaskHandler) LinkProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectID int64 `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "task/link", err)
		return
	}
	task, err := h.service.LinkProject(c.Request.Context(), id, req.ProjectID)
	if err != nil {
		respondError(c, "task/link", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id/projects/:projectId
func (h *TaskHandler) UnlinkProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return
	}
	task, err := h.service.UnlinkProject(c.Request.Context(), id, projectID)
	if err != nil {
		respondError(c, "task/unlink", err)
		return
	}
	c.JSON(http.StatusOK, task)
}
