package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
	"metrika/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for AuthMiddleware.
func asUser(userID int64, roleID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role_id", roleID)
		c.Next()
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("task 1: %w", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: title", services.ErrValidation), http.StatusBadRequest},
		{services.ErrAlreadyUnlocked, http.StatusBadRequest},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrSideEffects, http.StatusInternalServerError},
		{fmt.Errorf("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

func TestLogTag(t *testing.T) {
	assert.Equal(t, "[task][update]", logTag("task/update"))
	assert.Equal(t, "[ws]", logTag("ws"))
}

func TestParseOptionalTime(t *testing.T) {
	got, err := parseOptionalTime(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	day := "2026-05-01"
	got, err = parseOptionalTime(&day)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())

	stamp := "2026-05-01T10:30:00Z"
	got, err = parseOptionalTime(&stamp)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	bad := "01.05.2026"
	_, err = parseOptionalTime(&bad)
	assert.Error(t, err)
}

type stubNotifications struct {
	services.NotificationService
	gotID, gotRecipient int64
	markErr             error
}

func (s *stubNotifications) MarkRead(_ context.Context, id, recipientID int64) (*models.Notification, error) {
	s.gotID, s.gotRecipient = id, recipientID
	if s.markErr != nil {
		return nil, s.markErr
	}
	return &models.Notification{ID: id, RecipientID: recipientID, IsRead: true}, nil
}

func (s *stubNotifications) UnreadCount(context.Context, int64) (int, error) {
	return 4, nil
}

func notificationRouter(svc services.NotificationService) *gin.Engine {
	h := NewNotificationHandler(svc)
	r := gin.New()
	g := r.Group("/notifications", asUser(7, 10))
	g.GET("/unread-count", h.UnreadCount)
	g.PATCH("/:id/read", h.MarkRead)
	g.GET("", h.List)
	return r
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	svc := &stubNotifications{}
	r := notificationRouter(svc)

	w := do(r, http.MethodPatch, "/notifications/12/read", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(12), svc.gotID)
	assert.Equal(t, int64(7), svc.gotRecipient, "recipient comes from the token")

	svc.markErr = fmt.Errorf("notification 12: %w", services.ErrNotFound)
	w = do(r, http.MethodPatch, "/notifications/12/read", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPatch, "/notifications/abc/read", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", errorBody(t, w))

	w = do(r, http.MethodGet, "/notifications/unread-count", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":4}`, w.Body.String())

	w = do(r, http.MethodGet, "/notifications?isRead=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubTasks struct {
	services.TaskService
	err error
}

func (s *stubTasks) UpdateStatus(_ context.Context, actorID, id int64, to models.TaskStatus) (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Task{ID: id, Status: to, CompletedBy: &actorID}, nil
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	svc := &stubTasks{}
	h := NewTaskHandler(svc, nil)
	r := gin.New()
	r.PATCH("/tasks/:id/status", asUser(3, 10), h.UpdateStatus)

	w := do(r, http.MethodPatch, "/tasks/5/status", `{"status":"Done"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, models.StatusDone, task.Status)
	assert.Equal(t, int64(3), *task.CompletedBy)

	w = do(r, http.MethodPatch, "/tasks/5/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = fmt.Errorf("update task 5: %w: xp", services.ErrSideEffects)
	w = do(r, http.MethodPatch, "/tasks/5/status", `{"status":"Done"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "saved, but some follow-up steps failed", errorBody(t, w))

	svc.err = fmt.Errorf("pq: deadlock detected")
	w = do(r, http.MethodPatch, "/tasks/5/status", `{"status":"Done"}`)
	assert.Equal(t, "internal error", errorBody(t, w))
}

type stubGamification struct {
	services.GamificationService
}

func (stubGamification) Unlock(_ context.Context, _ int64, key string) (models.XPResult, error) {
	if key == "first_task" {
		return models.XPResult{}, fmt.Errorf("%q: %w", key, services.ErrAlreadyUnlocked)
	}
	return models.XPResult{Applied: true, XP: 150, Level: 1, PrevLevel: 1}, nil
}

func TestGamificationHandler_Unlock(t *testing.T) {
	h := NewGamificationHandler(stubGamification{})
	r := gin.New()
	r.POST("/gamification/achievements/:id/unlock", asUser(1, 10), h.Unlock)

	w := do(r, http.MethodPost, "/gamification/achievements/first_task/unlock", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "already unlocked")

	w = do(r, http.MethodPost, "/gamification/achievements/streak_7/unlock", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"xp":150`)
}

type stubGoals struct {
	services.GoalService
	got *models.Goal
}

func (s *stubGoals) Create(_ context.Context, actorID int64, g *models.Goal) (*models.Goal, error) {
	g.ID, g.CreatedBy = 1, actorID
	s.got = g
	return g, nil
}

func TestKPIHandler_CreateGoalZeroTarget(t *testing.T) {
	svc := &stubGoals{}
	h := NewKPIHandler(svc, nil)
	r := gin.New()
	r.POST("/kpi/goals", asUser(2, 10), h.CreateGoal)

	w := do(r, http.MethodPost, "/kpi/goals", `{"name":"Zero incidents","target":0,"category":"quality"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.got)
	assert.Zero(t, svc.got.Target)
	assert.Equal(t, int64(2), svc.got.CreatedBy)

	w = do(r, http.MethodPost, "/kpi/goals", `{"name":"No target","category":"quality"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubReorder struct {
	services.TaskService
	projectID, actorID int64
	items              []models.ReorderItem
}

func (s *stubReorder) Reorder(_ context.Context, actorID, projectID int64, items []models.ReorderItem) error {
	s.actorID, s.projectID, s.items = actorID, projectID, items
	return nil
}

func TestTaskHandler_Reorder(t *testing.T) {
	svc := &stubReorder{}
	h := NewTaskHandler(svc, nil)
	r := gin.New()
	r.PATCH("/projects/:id/tasks/reorder", asUser(3, 10), h.Reorder)

	w := do(r, http.MethodPatch, "/projects/4/tasks/reorder",
		`{"items":[{"id":11,"order":0,"status":"Done"},{"id":12,"order":1,"status":"Done"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(4), svc.projectID)
	assert.Equal(t, int64(3), svc.actorID)
	require.Len(t, svc.items, 2)
	assert.Equal(t, models.StatusDone, svc.items[1].Status)
	assert.Equal(t, 1, svc.items[1].Order)

	w = do(r, http.MethodPatch, "/projects/4/tasks/reorder", `{"tasks":[{"id":11,"order":0,"status":"Done"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
