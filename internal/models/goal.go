package models

import (
	"math"
	"time"
)

type GoalCategory string

const (
	GoalRevenue GoalCategory = "revenue"
	GoalProject GoalCategory = "project"
	GoalTeam    GoalCategory = "team"
	GoalQuality GoalCategory = "quality"
)

func (c GoalCategory) Valid() bool {
	switch c {
	case GoalRevenue, GoalProject, GoalTeam, GoalQuality:
		return true
	}
	return false
}

type GoalStatus string

const (
	GoalOnTrack   GoalStatus = "on-track"
	GoalAtRisk    GoalStatus = "at-risk"
	GoalBehind    GoalStatus = "behind"
	GoalCompleted GoalStatus = "completed"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalOnTrack, GoalAtRisk, GoalBehind, GoalCompleted:
		return true
	}
	return false
}

// Goal is a tracked KPI. IsCustom=false marks system goals that cannot be deleted.
type Goal struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Target      float64      `json:"target"`
	Current     float64      `json:"current"`
	Unit        string       `json:"unit"`
	Category    GoalCategory `json:"category"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Status      GoalStatus   `json:"status"`
	ProjectID   *int64       `json:"project_id,omitempty"`
	CreatedBy   int64        `json:"created_by"`
	IsCustom    bool         `json:"is_custom"`
	Progress    int          `json:"progress"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (g *Goal) ComputeProgress() {
	g.Progress = GoalProgress(g.Current, g.Target)
}

// GoalProgress is min(round(current/target*100), 100), or 0 when target is 0.
func GoalProgress(current, target float64) int {
	if target <= 0 {
		return 0
	}
	p := int(math.Round(current / target * 100))
	if p > 100 {
		return 100
	}
	return p
}

type GoalFilter struct {
	Category  *GoalCategory
	Status    *GoalStatus
	ProjectID *int64
}

type GoalPatch struct {
	Name        *string
	Description *string
	Target      *float64
	Current     *float64
	Unit        *string
	Category    *GoalCategory
	Deadline    *time.Time
	Status      *GoalStatus
}

// GoalRecord is one recorded value in a goal's history.
type GoalRecord struct {
	ID         int64     `json:"id"`
	GoalID     int64     `json:"goal_id"`
	Value      float64   `json:"value"`
	Note       string    `json:"note"`
	RecordedBy int64     `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}
