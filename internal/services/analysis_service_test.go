package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

type analysisEnv struct {
	*env
	sched    *manualScheduler
	analyses *fakeAnalyses
	svc      AnalysisService
}

func newAnalysisEnv() *analysisEnv {
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	project := int64(1)
	docs := &fakeDocuments{docs: map[int64]models.Document{
		1: {ID: 1, Name: "Charter.pdf", ProjectID: &project, UploaderID: 1},
		2: {ID: 2, Name: "Loose.docx", UploaderID: 1},
	}}
	ae := &analysisEnv{env: e, sched: &manualScheduler{}, analyses: &fakeAnalyses{items: map[int64]models.Analysis{}}}
	ae.svc = NewAnalysisService(ae.analyses, docs, e.users, e.taskService, e.gamification, e.activities, e.notifier,
		&fakeEmail{}, ae.sched, 3*time.Second, "https://metrika.local/")
	return ae
}

func TestAnalyze_CompletesOnTimer(t *testing.T) {
	ctx := context.Background()
	e := newAnalysisEnv()

	a, err := e.svc.Analyze(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisAnalyzing, a.Status)
	assert.Empty(t, a.Summary)
	assert.Equal(t, XPAnalysisStarted, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityAnalysis), 1)
	require.Len(t, e.sched.pending, 1)

	e.sched.fire()

	done, err := e.svc.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisCompleted, done.Status)
	assert.NotNil(t, done.AnalyzedAt)
	assert.Contains(t, done.Summary, "Charter.pdf")
	assert.Len(t, done.SuggestedActions, 3)

	notes := e.notifications.to(1)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyAI, notes[0].Type)

	_, err = e.svc.Analyze(ctx, 1, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAsTask(t *testing.T) {
	ctx := context.Background()
	e := newAnalysisEnv()

	a, err := e.svc.Analyze(ctx, 1, 1)
	require.NoError(t, err)
	e.sched.fire()

	got, task, err := e.svc.MarkAsTask(ctx, 1, a.ID, "s-0", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.ProjectID)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	act := got.FindAction("s-0")
	require.NotNil(t, act)
	assert.True(t, act.AddedAsTask)
	assert.Equal(t, task.ID, *act.TaskID)

	_, _, err = e.svc.MarkAsTask(ctx, 1, a.ID, "s-0", nil)
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = e.svc.MarkAsTask(ctx, 1, a.ID, "s-9", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := e.svc.BulkTasks(ctx, 1, a.ID, nil)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	created, err = e.svc.BulkTasks(ctx, 1, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMarkAsTask_NeedsProject(t *testing.T) {
	ctx := context.Background()
	e := newAnalysisEnv()

	a, err := e.svc.Analyze(ctx, 1, 2)
	require.NoError(t, err)
	e.sched.fire()

	_, _, err = e.svc.MarkAsTask(ctx, 1, a.ID, "s-1", nil)
	assert.ErrorIs(t, err, ErrValidation)

	project := int64(2)
	_, task, err := e.svc.MarkAsTask(ctx, 1, a.ID, "s-1", &project)
	require.NoError(t, err)
	assert.Equal(t, int64(2), task.ProjectID)
}
