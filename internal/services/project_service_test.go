package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func TestProjectCompletion_NotifiesTeamOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias"}, models.User{ID: 3, Name: "Miras"})
	e.projects.projects[3] = models.Project{
		ID: 3, Title: "Orbit", Status: models.ProjectActive, Methodology: models.MethodologyScrum,
		ManagerID: 1, MemberIDs: []int64{1, 2, 3},
	}
	svc := NewProjectService(e.projects, e.tasks, &fakeSprints{}, e.users, e.activities, e.notifier, nil)

	done := models.ProjectCompleted
	p, err := svc.Update(ctx, 2, 3, models.ProjectPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, p.Status)

	for _, uid := range []int64{1, 2, 3} {
		assert.Len(t, e.notifications.to(uid), 1, "recipient %d", uid)
	}
	acts := e.activityRepo.ofType(models.ActivityComplete)
	require.Len(t, acts, 1)
	assert.Equal(t, int64(2), acts[0].UserID)
	assert.Zero(t, acts[0].XPEarned)

	// Completed -> Completed не повторяет уведомления
	title := "Orbit v2"
	_, err = svc.Update(ctx, 2, 3, models.ProjectPatch{Title: &title, Status: &done})
	require.NoError(t, err)
	assert.Len(t, e.notifications.to(1), 1)
	assert.Len(t, e.activityRepo.ofType(models.ActivityComplete), 1)
}

func TestProjectCreate_Defaults(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	svc := NewProjectService(e.projects, e.tasks, &fakeSprints{}, e.users, e.activities, e.notifier, nil)

	p, err := svc.Create(ctx, 1, &models.Project{Title: " Launch "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", p.Title)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, models.MethodologyScrum, p.Methodology)
	assert.Equal(t, int64(1), p.ManagerID)
	assert.False(t, p.StartDate.IsZero())
	assert.NotNil(t, p.MemberIDs)

	_, err = svc.Create(ctx, 1, &models.Project{Title: "Broke", Budget: -5})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, 1, &models.Project{Title: ""})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProjectRemoveMember_KeepsManager(t *testing.T) {
	e := newEnv()
	svc := NewProjectService(e.projects, e.tasks, &fakeSprints{}, e.users, e.activities, e.notifier, nil)
	_, err := svc.RemoveMember(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProjectUpdate_KeepsRecalculatedProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	e.projects.projects[1] = models.Project{ID: 1, Title: "Apollo", Status: models.ProjectActive, Methodology: models.MethodologyScrum, ManagerID: 1}
	svc := NewProjectService(e.projects, e.tasks, &fakeSprints{}, e.users, e.activities, e.notifier, nil)
	e.projects.beforeUpdate = func() {
		e.projects.mu.Lock()
		p := e.projects.projects[1]
		p.Progress = 75
		e.projects.projects[1] = p
		e.projects.mu.Unlock()
	}

	title := "Apollo 2"
	p, err := svc.Update(ctx, 1, 1, models.ProjectPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 75, p.Progress)

	manual := 20
	p, err = svc.Update(ctx, 1, 1, models.ProjectPatch{Progress: &manual})
	require.NoError(t, err)
	assert.Equal(t, 20, p.Progress)
}
