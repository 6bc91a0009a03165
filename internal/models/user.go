package models

import "time"

// UserStatus is the presence flag shown in the team directory.
type UserStatus string

const (
	UserOnline  UserStatus = "online"
	UserBusy    UserStatus = "busy"
	UserOffline UserStatus = "offline"
	UserAway    UserStatus = "away"
)

type Badge struct {
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Color    string    `json:"color"`
	EarnedAt time.Time `json:"earned_at"`
}

type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"` // 0-100
}

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	RoleID       int        `json:"role_id"`
	Role         string     `json:"role"`
	Department   string     `json:"department"`
	Location     string     `json:"location"`
	Bio          string     `json:"bio"`
	Avatar       int        `json:"avatar"`
	Phone        string     `json:"phone,omitempty"`
	Status       UserStatus `json:"status"`

	// gamification
	Level                int        `json:"level"`
	XP                   int        `json:"xp"`
	Badges               []Badge    `json:"badges"`
	Skills               []Skill    `json:"skills"`
	CurrentStreak        int        `json:"current_streak"`
	LongestStreak        int        `json:"longest_streak"`
	LastActiveDate       *time.Time `json:"last_active_date,omitempty"`
	UnlockedAchievements []string   `json:"unlocked_achievements"`

	JoinDate  time.Time `json:"join_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`
}

// XPToNextLevel is the xp total at which the next level starts.
func (u *User) XPToNextLevel() int {
	return u.Level * 1000
}

// HasAchievement reports whether key is already in the unlocked set.
func (u *User) HasAchievement(key string) bool {
	for _, k := range u.UnlockedAchievements {
		if k == key {
			return true
		}
	}
	return false
}

// UserSummary is the reduced projection used for references inside other payloads.
type UserSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar int    `json:"avatar"`
}

type UserFilter struct {
	Department *string
	Status     *UserStatus
	Search     *string
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserStats is the per-user counter block on the profile page.
type UserStats struct {
	CompletedTasks int `json:"completed_tasks"`
	ActiveTasks    int `json:"active_tasks"`
	ActiveProjects int `json:"active_projects"`
	TotalProjects  int `json:"total_projects"`
	OnTimeRate     int `json:"on_time_rate"`
}

// ProfilePatch carries the self-editable profile fields; nil fields are left untouched.
type ProfilePatch struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Location   *string `json:"location"`
	Bio        *string `json:"bio"`
	Avatar     *int    `json:"avatar"`
	Phone      *string `json:"phone"`
	Skills     []Skill `json:"skills"`
}

type InviteRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}
