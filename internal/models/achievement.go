package models

type AchievementType string

const (
	AchievementTasks     AchievementType = "tasks"
	AchievementStreak    AchievementType = "streak"
	AchievementLevel     AchievementType = "level"
	AchievementProjects  AchievementType = "projects"
	AchievementDocuments AchievementType = "documents"
)

// Achievement is a catalog entry; the catalog is fixed at build time.
type Achievement struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HowTo       string          `json:"how_to"`
	Icon        string          `json:"icon"`
	Color       string          `json:"color"`
	XP          int             `json:"xp"`
	Requirement int             `json:"requirement"`
	Type        AchievementType `json:"type"`
}

type AchievementProgress struct {
	Achievement
	Current  int  `json:"current"`
	Progress int  `json:"progress"`
	Unlocked bool `json:"unlocked"`
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Avatar     int    `json:"avatar"`
	Role       string `json:"role"`
	Department string `json:"department"`
	XP         int    `json:"xp"`
	Level      int    `json:"level"`
}

type BadgeStatus struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

type GamificationProfile struct {
	UserID         int64      `json:"user_id"`
	Level          int        `json:"level"`
	XP             int        `json:"xp"`
	XPToNextLevel  int        `json:"xp_to_next_level"`
	Badges         []Badge    `json:"badges"`
	Skills         []Skill    `json:"skills"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	Rank           int        `json:"rank"`
	RecentActivity []Activity `json:"recent_activity"`
}

// XPAward is one keyed entry of the xp ledger.
type XPAward struct {
	Key    string
	UserID int64
	Amount int
	Event  string
}

// XPResult is the outcome of an xp mutation.
type XPResult struct {
	Applied   bool `json:"applied"`
	Amount    int  `json:"amount"`
	XP        int  `json:"xp"`
	Level     int  `json:"level"`
	PrevLevel int  `json:"prev_level"`
}

func (r XPResult) LeveledUp() bool {
	return r.Applied && r.Level > r.PrevLevel
}
