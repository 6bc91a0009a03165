package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/services"
)

type GamificationHandler struct {
	service services.GamificationService
}

func NewGamificationHandler(service services.GamificationService) *GamificationHandler {
	return &GamificationHandler{service: service}
}

// @Summary  Профиль геймификации
// @Tags     Gamification
// @Produce  json
// @Success  200  {object}  models.GamificationProfile
// @Router   /gamification/profile [get]
func (h *GamificationHandler) Profile(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	p, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "gamification/profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary  Лидерборд
// @Tags     Gamification
// @Produce  json
// @Param    period  query  string  false  "all-time | month | week"
// @Param    page    query  int     false  "Страница"
// @Param    limit   query  int     false  "Размер страницы"
// @Success  200  {object}  models.Page[models.LeaderboardEntry]
// @Router   /gamification/leaderboard [get]
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	page, limit := pageParams(c)
	res, err := h.service.Leaderboard(c.Request.Context(), c.Query("period"), page, limit)
	if err != nil {
		respondError(c, "gamification/leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /gamification/badges
func (h *GamificationHandler) Badges(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	items, err := h.service.Badges(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "gamification/badges", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /gamification/achievements
func (h *GamificationHandler) Achievements(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	items, err := h.service.Achievements(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "gamification/achievements", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /gamification/achievements/:id/unlock
func (h *GamificationHandler) Unlock(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	key := c.Param("id")
	res, err := h.service.Unlock(c.Request.Context(), userID, key)
	if err != nil {
		respondError(c, "gamification/unlock", err)
		return
	}
	log.Printf("[gamification][unlock][ok] user=%d key=%s xp=%d", userID, key, res.XP)
	c.JSON(http.StatusOK, res)
}

// POST /gamification/users/:id/xp-adjust (Admin)
func (h *GamificationHandler) AdjustXP(c *gin.Context) {
	adminID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "gamification/adjust", err)
		return
	}
	res, err := h.service.AdjustXP(c.Request.Context(), adminID, id, req.Delta, req.Reason)
	if err != nil {
		respondError(c, "gamification/adjust", err)
		return
	}
	log.Printf("[gamification][adjust][ok] admin=%d user=%d delta=%d", adminID, id, req.Delta)
	c.JSON(http.StatusOK, res)
}
