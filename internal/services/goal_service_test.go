package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func newGoals() *fakeGoals {
	return &fakeGoals{goals: map[int64]models.Goal{
		1: {ID: 1, Name: "Quarterly revenue", Target: 200, Current: 50, Unit: "k$", Category: models.GoalRevenue, Status: models.GoalBehind, IsCustom: true},
		2: {ID: 2, Name: "On-time delivery", Target: 100, Category: models.GoalProject, Status: models.GoalOnTrack},
	}}
}

func TestGoalRecord(t *testing.T) {
	ctx := context.Background()
	repo := newGoals()
	svc := NewGoalService(repo)

	g, err := svc.Record(ctx, 1, 1, 80, "march")
	require.NoError(t, err)
	assert.Equal(t, 40, g.Progress)
	assert.Equal(t, models.GoalBehind, g.Status)

	g, err = svc.Record(ctx, 1, 1, 230, "april")
	require.NoError(t, err)
	assert.Equal(t, 100, g.Progress)
	assert.Equal(t, models.GoalCompleted, g.Status)

	require.Len(t, repo.records, 2)
	assert.Equal(t, 230.0, repo.records[1].Value)
	assert.Equal(t, 230.0, repo.goals[1].Current)

	_, err = svc.Record(ctx, 1, 1, -1, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Record(ctx, 1, 404, 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGoalDelete_SystemGoalForbidden(t *testing.T) {
	ctx := context.Background()
	repo := newGoals()
	svc := NewGoalService(repo)

	assert.ErrorIs(t, svc.Delete(ctx, 2), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, 1))
	assert.Equal(t, []int64{1}, repo.deleted)
	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrNotFound)
}

func TestGoalUpdate_RecomputesProgress(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(newGoals())

	target := 100.0
	g, err := svc.Update(ctx, 1, models.GoalPatch{Target: &target})
	require.NoError(t, err)
	assert.Equal(t, 50, g.Progress)

	bad := models.GoalCategory("fun")
	_, err = svc.Update(ctx, 1, models.GoalPatch{Category: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}
