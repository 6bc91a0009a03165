// internal/models/task.go
package models

import (
	"math"
	"time"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "Todo"
	StatusInProgress TaskStatus = "In Progress"
	StatusReview     TaskStatus = "Review"
	StatusDone       TaskStatus = "Done"
	StatusBlocked    TaskStatus = "Blocked"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

// BoardStatuses are the kanban columns, in display order.
var BoardStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Task represents the structure of a task in the system.
type Task struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	Order          int          `json:"order"`
	ProjectID      int64        `json:"project_id"`
	ProjectIDs     []int64      `json:"project_ids"`
	SprintID       *int64       `json:"sprint_id,omitempty"`
	AssigneeID     *int64       `json:"assignee_id,omitempty"`
	CreatorID      int64        `json:"creator_id"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	EstimatedHours float64      `json:"estimated_hours"`
	LoggedHours    float64      `json:"logged_hours"`
	Progress       int          `json:"progress"`
	Tags           []string     `json:"tags"`
	Attachments    []Attachment `json:"attachments"`
	DocumentIDs    []int64      `json:"document_ids"`
	CompletedBy    *int64       `json:"completed_by,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	Completions    int          `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ComputeProgress refreshes the derived Progress field from the hour counters.
func (t *Task) ComputeProgress() {
	t.Progress = TaskProgress(t.LoggedHours, t.EstimatedHours)
}

// TaskProgress is min(logged/estimated*100, 100), or 0 without an estimate.
func TaskProgress(logged, estimated float64) int {
	if estimated <= 0 {
		return 0
	}
	p := int(math.Round(logged / estimated * 100))
	if p > 100 {
		return 100
	}
	return p
}

// LinkedTo reports whether projectID is the primary or a secondary project of the task.
func (t *Task) LinkedTo(projectID int64) bool {
	if t.ProjectID == projectID {
		return true
	}
	for _, id := range t.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Search     *string
	Status     *TaskStatus
	Priority   *TaskPriority
	ProjectID  *int64
	AssigneeID *int64
	SprintID   *int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *TaskStatus
	Priority       *TaskPriority
	AssigneeID     *int64
	SprintID       *int64
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	LoggedHours    *float64
	Tags           []string
}

type ReorderItem struct {
	ID     int64      `json:"id" binding:"required"`
	Order  int        `json:"order"`
	Status TaskStatus `json:"status" binding:"required"`
}

type TaskComment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type TimeLog struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Hours     float64   `json:"hours"`
	Note      string    `json:"note"`
	LoggedAt  time.Time `json:"logged_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskStatusCounts is the /tasks/stats/by-status payload.
type TaskStatusCounts struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
	Blocked    int `json:"blocked"`
}
