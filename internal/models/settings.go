package models

import "time"

type NotificationSettings struct {
	Email             bool `json:"email"`
	Desktop           bool `json:"desktop"`
	TaskAssignments   bool `json:"task_assignments"`
	DeadlineReminders bool `json:"deadline_reminders"`
	WeeklyReport      bool `json:"weekly_report"`
	MentionAlerts     bool `json:"mention_alerts"`
	ProjectUpdates    bool `json:"project_updates"`
}

type Preferences struct {
	Language   string `json:"language"`
	Timezone   string `json:"timezone"`
	Theme      string `json:"theme"` // light | dark | system
	DateFormat string `json:"date_format"`
}

type Settings struct {
	UserID        int64                `json:"user_id"`
	Notifications NotificationSettings `json:"notifications"`
	Preferences   Preferences          `json:"preferences"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func DefaultSettings(userID int64) *Settings {
	return &Settings{
		UserID: userID,
		Notifications: NotificationSettings{
			Email:           true,
			Desktop:         true,
			TaskAssignments: true,
			MentionAlerts:   true,
			ProjectUpdates:  true,
		},
		Preferences: Preferences{
			Language:   "tr",
			Timezone:   "Europe/Istanbul",
			Theme:      "system",
			DateFormat: "DD/MM/YYYY",
		},
	}
}

// NotificationSettingsPatch merges only the flags that were sent.
type NotificationSettingsPatch struct {
	Email             *bool `json:"email"`
	Desktop           *bool `json:"desktop"`
	TaskAssignments   *bool `json:"task_assignments"`
	DeadlineReminders *bool `json:"deadline_reminders"`
	WeeklyReport      *bool `json:"weekly_report"`
	MentionAlerts     *bool `json:"mention_alerts"`
	ProjectUpdates    *bool `json:"project_updates"`
}

type PreferencesPatch struct {
	Language   *string `json:"language"`
	Timezone   *string `json:"timezone"`
	Theme      *string `json:"theme"`
	DateFormat *string `json:"date_format"`
}
