package services

import (
	"math"

	"metrika/internal/models"
)

// Flat xp amounts per event.
const (
	XPTaskCreated      = 10
	XPCommentAdded     = 5
	XPDocumentUploaded = 10
	XPAnalysisStarted  = 15
	XPPraiseReceived   = 10
)

// CompletionXP is the priority-tier award for moving a task into Done.
func CompletionXP(p models.TaskPriority) int {
	switch p {
	case models.PriorityUrgent:
		return 50
	case models.PriorityHigh:
		return 30
	case models.PriorityMedium:
		return 20
	default:
		return 10
	}
}

// LevelFor is floor(xp/1000)+1; negative xp counts as 0.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/1000 + 1
}

// AchievementPercent is min(current/requirement*100, 100), rounded down.
func AchievementPercent(current, requirement int) int {
	if requirement <= 0 {
		return 100
	}
	p := int(math.Floor(float64(current) / float64(requirement) * 100))
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

var AchievementCatalog = []models.Achievement{
	{Key: "first_task", Name: "First Steps", Description: "Complete your first task", HowTo: "Move any task to Done", Icon: "🎯", Color: "#10B981", XP: 50, Requirement: 1, Type: models.AchievementTasks},
	{Key: "task_hunter", Name: "Task Hunter", Description: "Complete 10 tasks", HowTo: "Finish ten tasks", Icon: "🏹", Color: "#3B82F6", XP: 100, Requirement: 10, Type: models.AchievementTasks},
	{Key: "task_master", Name: "Task Master", Description: "Complete 50 tasks", HowTo: "Finish fifty tasks", Icon: "👑", Color: "#8B5CF6", XP: 300, Requirement: 50, Type: models.AchievementTasks},
	{Key: "streak_7", Name: "On Fire", Description: "Stay active 7 days in a row", HowTo: "Earn xp every day for a week", Icon: "🔥", Color: "#F59E0B", XP: 150, Requirement: 7, Type: models.AchievementStreak},
	{Key: "streak_30", Name: "Unstoppable", Description: "Stay active 30 days in a row", HowTo: "Earn xp every day for a month", Icon: "⚡", Color: "#EF4444", XP: 500, Requirement: 30, Type: models.AchievementStreak},
	{Key: "level_5", Name: "Rising Star", Description: "Reach level 5", HowTo: "Collect 4000 xp", Icon: "⭐", Color: "#EAB308", XP: 200, Requirement: 5, Type: models.AchievementLevel},
	{Key: "project_contributor", Name: "Team Player", Description: "Take part in 3 projects", HowTo: "Join or manage three projects", Icon: "🤝", Color: "#06B6D4", XP: 100, Requirement: 3, Type: models.AchievementProjects},
	{Key: "doc_uploader", Name: "Archivist", Description: "Upload 5 documents", HowTo: "Upload five documents", Icon: "📚", Color: "#6366F1", XP: 75, Requirement: 5, Type: models.AchievementDocuments},
}

func FindAchievement(key string) (models.Achievement, bool) {
	for _, a := range AchievementCatalog {
		if a.Key == key {
			return a, true
		}
	}
	return models.Achievement{}, false
}

// AchievementCounters holds the live values each achievement type is measured against.
type AchievementCounters struct {
	CompletedTasks int
	Streak         int
	Level          int
	Projects       int
	Documents      int
}

func (c AchievementCounters) For(t models.AchievementType) int {
	switch t {
	case models.AchievementTasks:
		return c.CompletedTasks
	case models.AchievementStreak:
		return c.Streak
	case models.AchievementLevel:
		return c.Level
	case models.AchievementProjects:
		return c.Projects
	case models.AchievementDocuments:
		return c.Documents
	}
	return 0
}

// EvaluateAchievements joins the catalog with the user's counters and unlocked set.
func EvaluateAchievements(c AchievementCounters, unlocked []string) []models.AchievementProgress {
	done := make(map[string]bool, len(unlocked))
	for _, k := range unlocked {
		done[k] = true
	}
	out := make([]models.AchievementProgress, 0, len(AchievementCatalog))
	for _, a := range AchievementCatalog {
		cur := c.For(a.Type)
		out = append(out, models.AchievementProgress{
			Achievement: a,
			Current:     cur,
			Progress:    AchievementPercent(cur, a.Requirement),
			Unlocked:    done[a.Key],
		})
	}
	return out
}
