package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/authz"
	"metrika/internal/models"
)

func newUserService(e *env, email *fakeEmail) UserService {
	auth := NewAuthService(e.users, time.Hour)
	return NewUserService(e.users, e.tasks, e.projects, e.taskService, e.gamification, e.activities, e.notifier, auth, email, nil)
}

func TestPraise(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias", XP: 995})
	svc := newUserService(e, &fakeEmail{})

	_, err := svc.Praise(ctx, 1, 1, "well done me", "")
	assert.ErrorIs(t, err, ErrValidation)

	res, err := svc.Praise(ctx, 1, 2, "great demo", "req-1")
	require.NoError(t, err)
	assert.Equal(t, 1005, res.XP)
	assert.True(t, res.LeveledUp())
	assert.Equal(t, 0, e.users.xp(1))

	praise := e.activityRepo.ofType(models.ActivityPraise)
	require.Len(t, praise, 1)
	assert.Equal(t, int64(2), praise[0].UserID)
	assert.Equal(t, "was praised by Aigerim", praise[0].Action)

	notes := e.notifications.to(2)
	require.Len(t, notes, 1)
	assert.Equal(t, "Aigerim praised you", notes[0].Title)

	_, err = svc.Praise(ctx, 1, 77, "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPraise_RetryWithSameRequestID(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias"})
	svc := newUserService(e, &fakeEmail{})
	e.activityRepo.failures = 1

	_, err := svc.Praise(ctx, 1, 2, "thanks", "req-7")
	require.ErrorIs(t, err, ErrSideEffects)
	assert.Equal(t, XPPraiseReceived, e.users.xp(2))

	res, err := svc.Praise(ctx, 1, 2, "thanks", "req-7")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, XPPraiseReceived, e.users.xp(2))
	assert.Len(t, e.activityRepo.ofType(models.ActivityPraise), 1)
	assert.Len(t, e.notifications.to(2), 1)

	_, err = svc.Praise(ctx, 1, 2, "thanks again", "req-8")
	require.NoError(t, err)
	assert.Equal(t, 2*XPPraiseReceived, e.users.xp(2))
}

func TestAssignTask_CreatesThroughLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"}, models.User{ID: 2, Name: "Dias"})
	svc := newUserService(e, &fakeEmail{})

	task, err := svc.AssignTask(ctx, 1, 2, nil, &models.Task{Title: "Prepare slides", ProjectID: 1})
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, int64(2), *task.AssigneeID)
	assert.Equal(t, XPTaskCreated, e.users.xp(1))
	assert.Len(t, e.notifications.to(2), 1)

	_, err = svc.AssignTask(ctx, 1, 2, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInvite(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim", Email: "aigerim@metrika.kz"})
	mail := &fakeEmail{}
	svc := newUserService(e, mail)

	u, err := svc.Invite(ctx, 1, models.InviteRequest{Name: "Dias", Email: " Dias@Metrika.kz ", Role: "Project Manager"})
	require.NoError(t, err)
	assert.Equal(t, "dias@metrika.kz", u.Email)
	assert.Equal(t, authz.RoleProjectManager, u.RoleID)
	assert.NotEmpty(t, u.PasswordHash)
	assert.Equal(t, []string{"dias@metrika.kz"}, mail.invites)

	_, err = svc.Invite(ctx, 1, models.InviteRequest{Name: "Again", Email: "aigerim@metrika.kz"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Invite(ctx, 1, models.InviteRequest{Email: "x@metrika.kz"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfile_SkillBounds(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	svc := newUserService(e, &fakeEmail{})

	_, err := svc.UpdateProfile(ctx, 1, models.ProfilePatch{Skills: []models.Skill{{Name: "Go", Level: 140}}})
	assert.ErrorIs(t, err, ErrValidation)

	blank := "  "
	_, err = svc.UpdateProfile(ctx, 1, models.ProfilePatch{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.SetStatus(ctx, 1, "sleeping"), ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	auth := NewAuthService(e.users, time.Hour)

	u, err := auth.Register(ctx, models.RegisterRequest{Name: "Miras", Email: "Miras@Metrika.kz", Password: "secret42"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleMember, u.RoleID)

	_, err = auth.Register(ctx, models.RegisterRequest{Name: "Miras", Email: "miras@metrika.kz", Password: "other1"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := auth.Authenticate(ctx, "miras@metrika.kz", "secret42")
	require.NoError(t, err)
	assert.Equal(t, models.UserOnline, got.Status)

	_, err = auth.Authenticate(ctx, "miras@metrika.kz", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Authenticate(ctx, "nobody@metrika.kz", "secret42")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
