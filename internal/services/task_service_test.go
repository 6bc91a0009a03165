package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func seedTask(t *testing.T, e *env, task models.Task) int64 {
	t.Helper()
	if task.ProjectID == 0 {
		task.ProjectID = 1
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	require.NoError(t, e.tasks.Store(context.Background(), &task))
	return task.ID
}

func TestTaskCompletion_AwardsOnceAndLevelsUp(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim", XP: 990})
	id := seedTask(t, e, models.Task{Title: "Ship release", Priority: models.PriorityUrgent, Status: models.StatusReview})

	task, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)
	require.NotNil(t, task.CompletedBy)
	assert.Equal(t, int64(1), *task.CompletedBy)
	assert.NotNil(t, task.CompletedAt)

	u, _ := e.users.GetByID(ctx, 1)
	assert.Equal(t, 1040, u.XP)
	assert.Equal(t, 2, u.Level)

	done := e.activityRepo.ofType(models.ActivityComplete)
	require.Len(t, done, 1)
	assert.Equal(t, 50, done[0].XPEarned)
	assert.Equal(t, "Ship release", done[0].Content)

	var levelUp bool
	for _, n := range e.notifications.to(1) {
		if n.Title == "Level 2 reached" {
			levelUp = true
		}
	}
	assert.True(t, levelUp, "level-up notification expected")
	assert.Equal(t, 1, e.projects.recalcs)

	// повторное сохранение Done задачи ничего не начисляет
	_, err = e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.NoError(t, err)
	title := "Ship release v2"
	_, err = e.taskService.Update(ctx, 1, id, models.TaskPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, 1040, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityComplete), 1)
}

func TestTaskCompletion_FailedStepKeepsTaskDone(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Deploy", Priority: models.PriorityMedium})
	e.users.awardErr = errors.New("users: connection reset")

	task, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.ErrorIs(t, err, ErrSideEffects)
	require.NotNil(t, task)
	assert.Equal(t, models.StatusDone, task.Status)

	got, _ := e.tasks.FindByID(ctx, id)
	assert.Equal(t, models.StatusDone, got.Status, "write stays committed")
	assert.Equal(t, 0, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityComplete), 1, "later steps still run")
	assert.Equal(t, 1, e.projects.recalcs)
}

func TestTaskCompletion_FailedActivityStillAwards(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Review PR", Priority: models.PriorityLow})
	e.activityRepo.failures = 1

	_, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.ErrorIs(t, err, ErrSideEffects)
	assert.Contains(t, err.Error(), "activity")

	got, _ := e.tasks.FindByID(ctx, id)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, CompletionXP(models.PriorityLow), e.users.xp(1))
	assert.Empty(t, e.activityRepo.ofType(models.ActivityComplete))
}

func TestTaskCompletion_ReopenedTaskCompletesAgain(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Fix login", Priority: models.PriorityHigh})

	_, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.NoError(t, err)
	task, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedBy)
	assert.Nil(t, task.CompletedAt)

	_, err = e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.NoError(t, err)

	assert.Equal(t, 60, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityComplete), 2)
}

func TestTaskCompletion_NotifiesAssignee(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias"})
	assignee := int64(2)
	id := seedTask(t, e, models.Task{Title: "Review budget", AssigneeID: &assignee})

	_, err := e.taskService.UpdateStatus(ctx, 1, id, models.StatusDone)
	require.NoError(t, err)

	got := e.notifications.to(2)
	require.Len(t, got, 1)
	assert.Equal(t, "Task completed", got[0].Title)
	assert.Equal(t, 20, e.users.xp(1), "xp goes to the actor")
	assert.Equal(t, 0, e.users.xp(2))
}

func TestTaskCreate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias"})
	assignee := int64(2)

	task, err := e.taskService.Create(ctx, 1, &models.Task{Title: "  Draft plan ", ProjectID: 1, AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "Draft plan", task.Title)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, int64(1), task.CreatorID)
	assert.Equal(t, XPTaskCreated, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityCreate), 1)

	got := e.notifications.to(2)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotifyTask, got[0].Type)
}

func TestTaskCreate_DoneFiresCompletion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})

	task, err := e.taskService.Create(ctx, 1, &models.Task{Title: "Already done", ProjectID: 1, Status: models.StatusDone, Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, XPTaskCreated+10, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityComplete), 1)
}

func TestTaskCreate_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	ghost := int64(42)

	_, err := e.taskService.Create(ctx, 1, &models.Task{Title: " ", ProjectID: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.Create(ctx, 1, &models.Task{Title: "x", ProjectID: 1, Status: "Archived"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.Create(ctx, 1, &models.Task{Title: "x", ProjectID: 99})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.taskService.Create(ctx, 1, &models.Task{Title: "x", ProjectID: 1, AssigneeID: &ghost})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, e.users.xp(1))
}

func TestTaskComments_AwardEach(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Discuss"})

	_, err := e.taskService.AddComment(ctx, 1, id, "first")
	require.NoError(t, err)
	_, err = e.taskService.AddComment(ctx, 1, id, "second")
	require.NoError(t, err)
	_, err = e.taskService.AddComment(ctx, 1, id, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 2*XPCommentAdded, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityComment), 2)
}

func TestTaskReorder_DoesNotAward(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	a := seedTask(t, e, models.Task{Title: "a"})
	b := seedTask(t, e, models.Task{Title: "b", Status: models.StatusInProgress})

	err := e.taskService.Reorder(ctx, 1, 1, []models.ReorderItem{
		{ID: a, Order: 0, Status: models.StatusDone},
		{ID: b, Order: 1, Status: models.StatusDone},
	})
	require.NoError(t, err)

	gotA, _ := e.tasks.FindByID(ctx, a)
	gotB, _ := e.tasks.FindByID(ctx, b)
	assert.Equal(t, models.StatusDone, gotA.Status)
	assert.Equal(t, 0, gotA.Order)
	assert.Equal(t, models.StatusDone, gotB.Status)
	assert.Equal(t, 1, gotB.Order)
	assert.NotNil(t, gotB.CompletedAt, "board moves still stamp completion")
	assert.Equal(t, 1, e.projects.recalcs)

	assert.Equal(t, 0, e.users.xp(1))
	assert.Empty(t, e.activityRepo.ofType(models.ActivityComplete))

	// обратно в работу
	require.NoError(t, e.taskService.Reorder(ctx, 1, 1, []models.ReorderItem{{ID: b, Order: 0, Status: models.StatusInProgress}}))
	gotB, _ = e.tasks.FindByID(ctx, b)
	assert.Nil(t, gotB.CompletedAt)
	assert.Equal(t, 2, e.projects.recalcs)

	assert.ErrorIs(t, e.taskService.Reorder(ctx, 1, 1, nil), ErrValidation)
	assert.ErrorIs(t, e.taskService.Reorder(ctx, 1, 1, []models.ReorderItem{{ID: a, Status: "Nope"}}), ErrValidation)
}

func TestTaskReorder_ScopedToProject(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	other := seedTask(t, e, models.Task{Title: "elsewhere", ProjectID: 2})

	require.NoError(t, e.taskService.Reorder(ctx, 1, 1, []models.ReorderItem{{ID: other, Order: 3, Status: models.StatusDone}}))
	got, _ := e.tasks.FindByID(ctx, other)
	assert.Equal(t, models.StatusTodo, got.Status)
	assert.Zero(t, e.projects.recalcs)
}

func TestTaskLinkProject(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Shared work"})

	task, err := e.taskService.LinkProject(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, task.ProjectIDs)

	_, err = e.taskService.LinkProject(ctx, id, 2)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = e.taskService.LinkProject(ctx, id, 1)
	assert.ErrorIs(t, err, ErrConflict, "primary project")
	_, err = e.taskService.LinkProject(ctx, id, 77)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.taskService.UnlinkProject(ctx, id, 1)
	assert.ErrorIs(t, err, ErrValidation)

	task, err = e.taskService.UnlinkProject(ctx, id, 2)
	require.NoError(t, err)
	assert.Empty(t, task.ProjectIDs)

	_, err = e.taskService.UnlinkProject(ctx, id, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskUpdate_PatchRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Estimate", EstimatedHours: 10})

	logged := 4.0
	task, err := e.taskService.Update(ctx, 1, id, models.TaskPatch{LoggedHours: &logged})
	require.NoError(t, err)
	assert.Equal(t, 40, task.Progress)

	neg := -1.0
	_, err = e.taskService.Update(ctx, 1, id, models.TaskPatch{EstimatedHours: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	empty := ""
	_, err = e.taskService.Update(ctx, 1, id, models.TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.taskService.Update(ctx, 1, 999, models.TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, e.projects.recalcs, "no status move, no recalc")
}

func TestTaskLogTime(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Build", EstimatedHours: 8})

	l, err := e.taskService.LogTime(ctx, 1, id, 2, "pairing")
	require.NoError(t, err)
	assert.Equal(t, 2.0, l.Hours)

	got, _ := e.tasks.FindByID(ctx, id)
	assert.Equal(t, 2.0, got.LoggedHours)
	assert.Equal(t, 25, got.Progress)
	assert.Len(t, e.activityRepo.ofType(models.ActivityTimeLog), 1)

	_, err = e.taskService.LogTime(ctx, 1, id, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskUpdate_KeepsConcurrentLoggedHours(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	id := seedTask(t, e, models.Task{Title: "Build", EstimatedHours: 10})
	e.tasks.beforeUpdate = func() {
		_, _ = e.tasks.AddLoggedHours(ctx, id, 3)
	}

	title := "Build v2"
	task, err := e.taskService.Update(ctx, 1, id, models.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 3.0, task.LoggedHours)
	assert.Equal(t, 30, task.Progress)

	got, _ := e.tasks.FindByID(ctx, id)
	assert.Equal(t, "Build v2", got.Title)
	assert.Equal(t, 3.0, got.LoggedHours)
}
