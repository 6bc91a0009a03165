package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrika/internal/models"
)

func TestAward_ReplayIsNoop(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	award := models.XPAward{Key: "task:1:complete:1", UserID: 1, Amount: 30, Event: "task_completed"}

	res, err := e.gamification.Award(ctx, award)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 30, res.XP)

	res, err = e.gamification.Award(ctx, award)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 30, e.users.xp(1))

	_, err = e.gamification.Award(ctx, models.XPAward{UserID: 1, Amount: 5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnlock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim", XP: 100})

	res, err := e.gamification.Unlock(ctx, 1, "first_task")
	require.NoError(t, err)
	assert.Equal(t, 150, res.XP)

	u, _ := e.users.GetByID(ctx, 1)
	assert.Equal(t, []string{"first_task"}, u.UnlockedAchievements)
	require.Len(t, u.Badges, 1)
	assert.Equal(t, "First Steps", u.Badges[0].Name)
	assert.Len(t, e.activityRepo.ofType(models.ActivityAchievement), 1)

	notes := e.notifications.to(1)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyBadge, notes[0].Type)

	_, err = e.gamification.Unlock(ctx, 1, "first_task")
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.Equal(t, 150, e.users.xp(1), "second unlock grants nothing")
	assert.Len(t, e.notifications.to(1), 1)

	_, err = e.gamification.Unlock(ctx, 1, "no_such_badge")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.gamification.Unlock(ctx, 9, "first_task")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnlock_RetryAfterFailedActivityKeepsXP(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim"})
	e.activityRepo.failures = 1

	res, err := e.gamification.Unlock(ctx, 1, "first_task")
	require.ErrorIs(t, err, ErrSideEffects)
	assert.Equal(t, 50, res.XP, "xp lands with the badge")
	assert.Equal(t, 50, e.users.xp(1))
	assert.Empty(t, e.activityRepo.ofType(models.ActivityAchievement))

	_, err = e.gamification.Unlock(ctx, 1, "first_task")
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.Equal(t, 50, e.users.xp(1))
	assert.Len(t, e.activityRepo.ofType(models.ActivityAchievement), 1, "retry fills in the missing activity")
	assert.Len(t, e.notifications.to(1), 1)
}

func TestAdjustXP_CanLowerLevel(t *testing.T) {
	ctx := context.Background()
	e := newEnv(models.User{ID: 1, Name: "Aigerim", XP: 2100})

	res, err := e.gamification.AdjustXP(ctx, 50, 1, -1500, "duplicate import")
	require.NoError(t, err)
	assert.Equal(t, 600, res.XP)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, 3, res.PrevLevel)
	assert.False(t, res.LeveledUp())

	res, err = e.gamification.AdjustXP(ctx, 50, 1, -5000, "reset")
	require.NoError(t, err)
	assert.Equal(t, 0, res.XP, "xp is clamped at zero")

	_, err = e.gamification.AdjustXP(ctx, 50, 1, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, e.activityRepo.ofType(models.ActivityAdjustment), 2)
}

func TestProfile_RankSharesTies(t *testing.T) {
	ctx := context.Background()
	e := newEnv(
		models.User{ID: 1, Name: "Aigerim", XP: 500},
		models.User{ID: 2, Name: "Dias", XP: 500},
		models.User{ID: 3, Name: "Miras", XP: 1200},
		models.User{ID: 4, Name: "Saule", XP: 100},
	)

	p1, err := e.gamification.Profile(ctx, 1)
	require.NoError(t, err)
	p2, err := e.gamification.Profile(ctx, 2)
	require.NoError(t, err)
	p4, err := e.gamification.Profile(ctx, 4)
	require.NoError(t, err)

	assert.Equal(t, 2, p1.Rank)
	assert.Equal(t, 2, p2.Rank)
	assert.Equal(t, 4, p4.Rank)
	assert.Equal(t, 1000, p1.XPToNextLevel)

	_, err = e.gamification.Profile(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboard_UnknownPeriod(t *testing.T) {
	e := newEnv()
	_, err := e.gamification.Leaderboard(context.Background(), "decade", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}
