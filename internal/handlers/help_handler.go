package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type HelpHandler struct {
	service services.HelpService
}

func NewHelpHandler(service services.HelpService) *HelpHandler {
	return &HelpHandler{service: service}
}

// GET /help/articles?category
func (h *HelpHandler) Articles(c *gin.Context) {
	items, err := h.service.Articles(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, "help/articles", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /help/search?q
func (h *HelpHandler) Search(c *gin.Context) {
	items, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, "help/search", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /help/faq
func (h *HelpHandler) FAQ(c *gin.Context) {
	items, err := h.service.FAQ(c.Request.Context())
	if err != nil {
		respondError(c, "help/faq", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /help/support-ticket
func (h *HelpHandler) CreateTicket(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req struct {
		Subject  string `json:"subject" binding:"required"`
		Message  string `json:"message" binding:"required"`
		Category string `json:"category"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "help/ticket", err)
		return
	}
	t, err := h.service.CreateTicket(c.Request.Context(), userID, &models.SupportTicket{
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		respondError(c, "help/ticket", err)
		return
	}
	log.Printf("[help][ticket][ok] id=%d user=%d", t.ID, userID)
	c.JSON(http.StatusCreated, t)
}
