package models

import "time"

type NotificationType string

const (
	NotifyXP       NotificationType = "xp"
	NotifyWarning  NotificationType = "warning"
	NotifyBadge    NotificationType = "badge"
	NotifyAI       NotificationType = "ai"
	NotifyMeeting  NotificationType = "meeting"
	NotifyTask     NotificationType = "task"
	NotifySuccess  NotificationType = "success"
	NotifyError    NotificationType = "error"
	NotifyInfo     NotificationType = "info"
	NotifyMention  NotificationType = "mention"
	NotifyDeadline NotificationType = "deadline"
)

type NotificationAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Kind  string `json:"type"` // primary | secondary
}

// ContextKind tags which fields of NotificationContext are meaningful.
type ContextKind string

const (
	ContextTask     ContextKind = "task"
	ContextXP       ContextKind = "xp"
	ContextBadge    ContextKind = "badge"
	ContextDeadline ContextKind = "deadline"
	ContextMeeting  ContextKind = "meeting"
	ContextAnalysis ContextKind = "analysis"
)

// NotificationContext is a closed set of context variants instead of an open map.
type NotificationContext struct {
	Kind       ContextKind `json:"kind"`
	TaskID     *int64      `json:"task_id,omitempty"`
	ProjectID  *int64      `json:"project_id,omitempty"`
	XP         int         `json:"xp,omitempty"`
	Level      int         `json:"level,omitempty"`
	BadgeName  string      `json:"badge_name,omitempty"`
	DueDate    *time.Time  `json:"due_date,omitempty"`
	MeetingURL string      `json:"meeting_url,omitempty"`
	AnalysisID *int64      `json:"analysis_id,omitempty"`
}

type Notification struct {
	ID          int64                `json:"id"`
	RecipientID int64                `json:"recipient_id"`
	Type        NotificationType     `json:"type"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	IsRead      bool                 `json:"is_read"`
	Actions     []NotificationAction `json:"actions"`
	Context     *NotificationContext `json:"context,omitempty"`
	DedupeKey   *string              `json:"-"`
	CreatedAt   time.Time            `json:"created_at"`
}
