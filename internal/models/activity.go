package models

import "time"

type ActivityType string

const (
	ActivityCreate      ActivityType = "create"
	ActivityComplete    ActivityType = "complete"
	ActivityComment     ActivityType = "comment"
	ActivityTimeLog     ActivityType = "time_log"
	ActivityUpdate      ActivityType = "update"
	ActivityUpload      ActivityType = "upload"
	ActivityAnalysis    ActivityType = "analysis"
	ActivityPraise      ActivityType = "praise"
	ActivityAchievement ActivityType = "achievement"
	ActivityAdjustment  ActivityType = "adjustment"
)

// Activity is an append-only record; it is never updated after insert.
type Activity struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	ProjectID      *int64       `json:"project_id,omitempty"`
	TaskID         *int64       `json:"task_id,omitempty"`
	Action         string       `json:"action"`
	Type           ActivityType `json:"type"`
	Content        string       `json:"content"`
	XPEarned       int          `json:"xp_earned"`
	IdempotencyKey *string      `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
}

type ActivityFilter struct {
	UserID    *int64
	TaskID    *int64
	ProjectID *int64
	XPOnly    bool
	Limit     int
}
