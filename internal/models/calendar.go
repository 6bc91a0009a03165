package models

import "time"

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventDeadline EventType = "deadline"
	EventTask     EventType = "task"
	EventReminder EventType = "reminder"
	EventOther    EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMeeting, EventDeadline, EventTask, EventReminder, EventOther:
		return true
	}
	return false
}

type Reminder struct {
	MinutesBefore int  `json:"time"`
	Sent          bool `json:"sent"`
}

type CalendarEvent struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        EventType  `json:"type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	AllDay      bool       `json:"all_day"`
	Color       string     `json:"color"`
	ProjectID   *int64     `json:"project_id,omitempty"`
	TaskID      *int64     `json:"task_id,omitempty"`
	CreatorID   int64      `json:"creator_id"`
	AttendeeIDs []int64    `json:"attendee_ids"`
	Location    string     `json:"location"`
	MeetingURL  string     `json:"meeting_url"`
	Reminders   []Reminder `json:"reminders"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CalendarFilter selects events visible to UserID (creator or attendee).
type CalendarFilter struct {
	UserID    int64
	From      *time.Time
	To        *time.Time
	ProjectID *int64
}

type CalendarPatch struct {
	Title       *string
	Description *string
	Type        *EventType
	StartDate   *time.Time
	EndDate     *time.Time
	AllDay      *bool
	Color       *string
	Location    *string
	MeetingURL  *string
	AttendeeIDs []int64
}
