package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"metrika/internal/models"
	"metrika/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "user/me", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileRequest struct {
	Name       *string        `json:"name"`
	Department *string        `json:"department"`
	Location   *string        `json:"location"`
	Bio        *string        `json:"bio"`
	Avatar     *int           `json:"avatar"`
	Phone      *string        `json:"phone"`
	Skills     []models.Skill `json:"skills"`
}

// @Summary  Обновить свой профиль
// @Tags     Users
// @Accept   json
// @Produce  json
// @Param    body  body      profileRequest  true  "Поля профиля"
// @Success  200   {object}  models.User
// @Router   /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user/updateMe", err)
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), userID, models.ProfilePatch{
		Name:       req.Name,
		Department: req.Department,
		Location:   req.Location,
		Bio:        req.Bio,
		Avatar:     req.Avatar,
		Phone:      req.Phone,
		Skills:     req.Skills,
	})
	if err != nil {
		respondError(c, "user/updateMe", err)
		return
	}
	log.Printf("[user][updateMe][ok] id=%d", userID)
	c.JSON(http.StatusOK, u)
}

// GET /users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/getByID", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// GET /users/:id/stats
func (h *UserHandler) Stats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	st, err := h.service.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /users/:id/tasks?status=active|<status>
func (h *UserHandler) Tasks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Tasks(c.Request.Context(), id, c.Query("status"))
	if err != nil {
		respondError(c, "user/tasks", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /users/:id/projects
func (h *UserHandler) Projects(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Projects(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/projects", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /users/:id/badges
func (h *UserHandler) Badges(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/badges", err)
		return
	}
	badges := u.Badges
	if badges == nil {
		badges = []models.Badge{}
	}
	c.JSON(http.StatusOK, badges)
}

// GET /users/:id/skills
func (h *UserHandler) Skills(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/skills", err)
		return
	}
	skills := u.Skills
	if skills == nil {
		skills = []models.Skill{}
	}
	c.JSON(http.StatusOK, skills)
}

// GET /users/:id/activity
func (h *UserHandler) Activity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Activity(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user/activity", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary  Похвалить коллегу (+10 XP)
// @Tags     Users
// @Accept   json
// @Produce  json
// @Param    id  path  int  true  "ID пользователя"
// @Param    X-Request-ID  header  string  false  "повтор с тем же ID не начисляет XP повторно"
// @Success  200  {object}  models.XPResult
// @Failure  400  {object}  map[string]string
// @Router   /users/{id}/praise [post]
func (h *UserHandler) Praise(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	_ = c.ShouldBindJSON(&req)

	res, err := h.service.Praise(c.Request.Context(), userID, id, req.Message, c.GetString("request_id"))
	if err != nil {
		respondError(c, "user/praise", err)
		return
	}
	log.Printf("[user][praise][ok] from=%d to=%d", userID, id)
	c.JSON(http.StatusOK, res)
}

// POST /users/:id/assign-task
func (h *UserHandler) AssignTask(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		TaskID *int64       `json:"task_id"`
		Task   *taskRequest `json:"task"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user/assignTask", err)
		return
	}
	var draft *models.Task
	if req.TaskID == nil && req.Task != nil {
		t, err := req.Task.toModel()
		if err != nil {
			badRequest(c, "user/assignTask", err)
			return
		}
		draft = t
	}
	task, err := h.service.AssignTask(c.Request.Context(), userID, id, req.TaskID, draft)
	if err != nil {
		respondError(c, "user/assignTask", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /team/members
func (h *UserHandler) Members(c *gin.Context) {
	filter := models.UserFilter{
		Department: queryString(c, "department"),
		Search:     queryString(c, "search"),
	}
	if v := queryString(c, "status"); v != nil {
		st := models.UserStatus(*v)
		filter.Status = &st
	}
	items, err := h.service.Members(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "team/members", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /team/departments
func (h *UserHandler) Departments(c *gin.Context) {
	items, err := h.service.Departments(c.Request.Context())
	if err != nil {
		respondError(c, "team/departments", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary  Пригласить участника (Admin)
// @Tags     Team
// @Accept   json
// @Produce  json
// @Param    body  body      models.InviteRequest  true  "Приглашение"
// @Success  201   {object}  models.User
// @Failure  409   {object}  map[string]string
// @Router   /team/members [post]
func (h *UserHandler) Invite(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "team/invite", err)
		return
	}
	u, err := h.service.Invite(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, "team/invite", err)
		return
	}
	log.Printf("[team][invite][ok] id=%d email=%q by=%d", u.ID, u.Email, userID)
	c.JSON(http.StatusCreated, u)
}
