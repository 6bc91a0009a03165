package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"metrika/internal/middleware"
	"metrika/internal/models"
	"metrika/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	accessTTL   time.Duration
}

func NewAuthHandler(authService services.AuthService, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, accessTTL: accessTTL}
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

func (h *AuthHandler) issueTokens(c *gin.Context, u *models.User) (*tokenResponse, error) {
	access, exp, err := middleware.SignAccessToken(u.ID, u.RoleID, h.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := h.authService.IssueRefresh(c.Request.Context(), u.ID)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: u}, nil
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  tokenResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "auth/login", err)
		return
	}
	email := strings.TrimSpace(req.Email)
	log.Printf("[auth][login] attempt email=%q", email)

	user, err := h.authService.Authenticate(c.Request.Context(), email, req.Password)
	if err != nil {
		respondError(c, "auth/login", err)
		return
	}
	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondError(c, "auth/login/token", err)
		return
	}
	log.Printf("[auth][login][ok] userID=%d took=%s", user.ID, time.Since(start))
	c.JSON(http.StatusOK, resp)
}

// @Summary      Регистрация
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Новый пользователь"
// @Success      201   {object}  tokenResponse
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "auth/register", err)
		return
	}
	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, "auth/register", err)
		return
	}
	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondError(c, "auth/register/token", err)
		return
	}
	log.Printf("[auth][register][ok] userID=%d", user.ID)
	c.JSON(http.StatusCreated, resp)
}

// @Summary      Обновление токенов
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  tokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "auth/refresh", err)
		return
	}
	user, refresh, err := h.authService.Rotate(c.Request.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		respondError(c, "auth/refresh", err)
		return
	}
	access, exp, err := middleware.SignAccessToken(user.ID, user.RoleID, h.accessTTL)
	if err != nil {
		respondError(c, "auth/refresh/token", err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: user})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, "auth/logout", err)
		return
	}
	log.Printf("[auth][logout][ok] userID=%d", userID)
	c.Status(http.StatusNoContent)
}
