package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type CalendarHandler struct {
	service services.CalendarService
}

func NewCalendarHandler(service services.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

type eventRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Type        models.EventType  `json:"type"`
	StartDate   string            `json:"start_date" binding:"required"`
	EndDate     *string           `json:"end_date"`
	AllDay      bool              `json:"all_day"`
	Color       string            `json:"color"`
	ProjectID   *int64            `json:"project_id"`
	TaskID      *int64            `json:"task_id"`
	AttendeeIDs []int64           `json:"attendee_ids"`
	Location    string            `json:"location"`
	MeetingURL  string            `json:"meeting_url"`
	Reminders   []models.Reminder `json:"reminders"`
}

type eventPatchRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Type        *models.EventType `json:"type"`
	StartDate   *string           `json:"start_date"`
	EndDate     *string           `json:"end_date"`
	AllDay      *bool             `json:"all_day"`
	Color       *string           `json:"color"`
	Location    *string           `json:"location"`
	MeetingURL  *string           `json:"meeting_url"`
	AttendeeIDs []int64           `json:"attendee_ids"`
}

// GET /calendar/events?year&month&projectId
func (h *CalendarHandler) Month(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	now := time.Now()
	year, month := now.Year(), now.Month()
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = y
	}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = time.Month(m)
	}
	items, err := h.service.Month(c.Request.Context(), userID, year, month, queryInt64(c, "projectId"))
	if err != nil {
		respondError(c, "calendar/month", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /calendar/events/:id
func (h *CalendarHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "calendar/get", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// POST /calendar/events
func (h *CalendarHandler) Create(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "calendar/create", err)
		return
	}
	start, err := parseOptionalTime(&req.StartDate)
	if err != nil || start == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseOptionalTime(req.EndDate)
	if err != nil {
		badRequest(c, "calendar/create", err)
		return
	}
	e, err := h.service.Create(c.Request.Context(), userID, &models.CalendarEvent{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartDate:   *start,
		EndDate:     end,
		AllDay:      req.AllDay,
		Color:       req.Color,
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		AttendeeIDs: req.AttendeeIDs,
		Location:    req.Location,
		MeetingURL:  req.MeetingURL,
		Reminders:   req.Reminders,
	})
	if err != nil {
		respondError(c, "calendar/create", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// PATCH /calendar/events/:id
func (h *CalendarHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req eventPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "calendar/update", err)
		return
	}
	start, err := parseOptionalTime(req.StartDate)
	if err != nil {
		badRequest(c, "calendar/update", err)
		return
	}
	end, err := parseOptionalTime(req.EndDate)
	if err != nil {
		badRequest(c, "calendar/update", err)
		return
	}
	e, err := h.service.Update(c.Request.Context(), userID, id, models.CalendarPatch{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartDate:   start,
		EndDate:     end,
		AllDay:      req.AllDay,
		Color:       req.Color,
		Location:    req.Location,
		MeetingURL:  req.MeetingURL,
		AttendeeIDs: req.AttendeeIDs,
	})
	if err != nil {
		respondError(c, "calendar/update", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /calendar/events/:id
func (h *CalendarHandler) Delete(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, "calendar/delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PATCH /calendar/events/:id/respond
func (h *CalendarHandler) Respond(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "calendar/respond", err)
		return
	}
	e, err := h.service.Respond(c.Request.Context(), userID, id, req.Response)
	if err != nil {
		respondError(c, "calendar/respond", err)
		return
	}
	c.JSON(http.StatusOK, e)
}
