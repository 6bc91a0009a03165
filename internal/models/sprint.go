package models

import "time"

type SprintStatus string

const (
	SprintPlanning  SprintStatus = "Planning"
	SprintActive    SprintStatus = "Active"
	SprintCompleted SprintStatus = "Completed"
	SprintCancelled SprintStatus = "Cancelled"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanning, SprintActive, SprintCompleted, SprintCancelled:
		return true
	}
	return false
}

type Sprint struct {
	ID              int64        `json:"id"`
	ProjectID       int64        `json:"project_id"`
	Name            string       `json:"name"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	Goal            string       `json:"goal"`
	Status          SprintStatus `json:"status"`
	Velocity        int          `json:"velocity"`
	PlannedPoints   int          `json:"planned_points"`
	CompletedPoints int          `json:"completed_points"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type SprintPatch struct {
	Name          *string
	StartDate     *time.Time
	EndDate       *time.Time
	Goal          *string
	Status        *SprintStatus
	Velocity      *int
	PlannedPoints *int
}

// SprintDetails is a sprint together with its tasks and counters.
type SprintDetails struct {
	Sprint
	Tasks          []Task `json:"tasks"`
	TaskCount      int    `json:"task_count"`
	CompletedCount int    `json:"completed_count"`
	Progress       int    `json:"progress"`
}
