package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"metrika/internal/models"
)

func TestCompletionXP(t *testing.T) {
	assert.Equal(t, 50, CompletionXP(models.PriorityUrgent))
	assert.Equal(t, 30, CompletionXP(models.PriorityHigh))
	assert.Equal(t, 20, CompletionXP(models.PriorityMedium))
	assert.Equal(t, 10, CompletionXP(models.PriorityLow))
	assert.Equal(t, 10, CompletionXP(""))
}

func TestLevelFor(t *testing.T) {
	cases := map[int]int{
		-50:  1,
		0:    1,
		999:  1,
		1000: 2,
		1040: 2,
		4000: 5,
		9999: 10,
	}
	for xp, want := range cases {
		assert.Equal(t, want, LevelFor(xp), "xp=%d", xp)
	}
}

func TestAchievementPercent(t *testing.T) {
	assert.Equal(t, 0, AchievementPercent(0, 10))
	assert.Equal(t, 33, AchievementPercent(1, 3))
	assert.Equal(t, 100, AchievementPercent(10, 10))
	assert.Equal(t, 100, AchievementPercent(70, 50))
	assert.Equal(t, 100, AchievementPercent(0, 0))
}

func TestEvaluateAchievements(t *testing.T) {
	got := EvaluateAchievements(AchievementCounters{CompletedTasks: 5, Streak: 7, Level: 2}, []string{"first_task"})
	assert.Len(t, got, len(AchievementCatalog))

	byKey := map[string]models.AchievementProgress{}
	for _, p := range got {
		byKey[p.Key] = p
	}
	assert.True(t, byKey["first_task"].Unlocked)
	assert.Equal(t, 100, byKey["first_task"].Progress)
	assert.Equal(t, 50, byKey["task_hunter"].Progress)
	assert.Equal(t, 10, byKey["task_master"].Progress)
	assert.Equal(t, 100, byKey["streak_7"].Progress)
	assert.False(t, byKey["streak_7"].Unlocked, "eligible is not unlocked")
	assert.Equal(t, 40, byKey["level_5"].Progress)
}

func TestFindAchievement(t *testing.T) {
	a, ok := FindAchievement("streak_30")
	assert.True(t, ok)
	assert.Equal(t, 500, a.XP)

	_, ok = FindAchievement("nope")
	assert.False(t, ok)
}

func TestClassifyTaskMove(t *testing.T) {
	assert.Equal(t, moveNone, classifyTaskMove(models.StatusDone, models.StatusDone))
	assert.Equal(t, moveNone, classifyTaskMove(models.StatusTodo, models.StatusTodo))
	assert.Equal(t, moveComplete, classifyTaskMove(models.StatusTodo, models.StatusDone))
	assert.Equal(t, moveComplete, classifyTaskMove(models.StatusBlocked, models.StatusDone))
	assert.Equal(t, moveReopen, classifyTaskMove(models.StatusDone, models.StatusReview))
	assert.Equal(t, moveColumn, classifyTaskMove(models.StatusTodo, models.StatusInProgress))
}

func TestProjectCompleted(t *testing.T) {
	assert.True(t, projectCompleted(models.ProjectActive, models.ProjectCompleted))
	assert.False(t, projectCompleted(models.ProjectCompleted, models.ProjectCompleted))
	assert.False(t, projectCompleted(models.ProjectActive, models.ProjectAtRisk))
}
