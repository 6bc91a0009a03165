package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"metrika/internal/services"
)

type NotificationHandler struct {
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// GET /notifications?isRead&page&limit
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var isRead *bool
	if v := c.Query("isRead"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid isRead"})
			return
		}
		isRead = &b
	}
	page, limit := pageParams(c)
	res, err := h.service.List(c.Request.Context(), userID, isRead, page, limit)
	if err != nil {
		respondError(c, "notification/list", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	n, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "notification/unread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, "notification/read", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	n, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "notification/readAll", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
