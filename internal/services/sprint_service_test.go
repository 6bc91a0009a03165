package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func newSprintEnv() (*sprintService, *fakeSprints) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repo := &fakeSprints{sprints: map[int64]models.Sprint{
		1: {ID: 1, ProjectID: 1, Name: "Sprint 1", Status: models.SprintCompleted, StartDate: start, EndDate: start.AddDate(0, 0, 14)},
		2: {ID: 2, ProjectID: 1, Name: "Sprint 2", Status: models.SprintPlanning, StartDate: start.AddDate(0, 0, 14), EndDate: start.AddDate(0, 0, 28)},
	}}
	svc := NewSprintService(repo, newFakeProjects(models.Project{ID: 1, Title: "Apollo"}), newFakeTasks()).(*sprintService)
	svc.now = func() time.Time { return start.AddDate(0, 0, 15) }
	return svc, repo
}

func TestSprintLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSprintEnv()

	sp, err := svc.Start(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SprintActive, sp.Status)
	assert.Equal(t, svc.now(), sp.StartDate)

	_, err = svc.Start(ctx, 2)
	assert.ErrorIs(t, err, ErrConflict)

	sp, err = svc.Complete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SprintCompleted, sp.Status)
	assert.Equal(t, models.SprintCompleted, repo.sprints[2].Status)

	_, err = svc.Complete(ctx, 2)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Complete(ctx, 1)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Complete(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSprintUpdate_CannotComplete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSprintEnv()

	done := models.SprintCompleted
	_, err := svc.Update(ctx, 2, models.SprintPatch{Status: &done})
	assert.ErrorIs(t, err, ErrValidation)

	goal := "Ship the onboarding flow"
	sp, err := svc.Update(ctx, 2, models.SprintPatch{Goal: &goal})
	require.NoError(t, err)
	assert.Equal(t, goal, sp.Goal)
}

func TestSprintCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSprintEnv()
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	sp, err := svc.Create(ctx, 1, &models.Sprint{Name: "Sprint 3", StartDate: start, EndDate: start.AddDate(0, 0, 14)})
	require.NoError(t, err)
	assert.Equal(t, models.SprintPlanning, sp.Status)
	assert.Equal(t, int64(1), sp.ProjectID)

	_, err = svc.Create(ctx, 1, &models.Sprint{Name: "Backwards", StartDate: start, EndDate: start.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, 9, &models.Sprint{Name: "Orphan", StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrNotFound)
}
