package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type SettingsHandler struct {
	service services.SettingsService
}

func NewSettingsHandler(service services.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GET /settings/notifications
func (h *SettingsHandler) Notifications(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	s, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "settings/notifications", err)
		return
	}
	c.JSON(http.StatusOK, s.Notifications)
}

// PATCH /settings/notifications
func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var patch models.NotificationSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "settings/updateNotifications", err)
		return
	}
	s, err := h.service.UpdateNotifications(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, "settings/updateNotifications", err)
		return
	}
	c.JSON(http.StatusOK, s.Notifications)
}

// GET /settings/preferences
func (h *SettingsHandler) Preferences(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	s, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "settings/preferences", err)
		return
	}
	c.JSON(http.StatusOK, s.Preferences)
}

// PATCH /settings/preferences
func (h *SettingsHandler) UpdatePreferences(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var patch models.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "settings/updatePreferences", err)
		return
	}
	s, err := h.service.UpdatePreferences(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, "settings/updatePreferences", err)
		return
	}
	c.JSON(http.StatusOK, s.Preferences)
}
