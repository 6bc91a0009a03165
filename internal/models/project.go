package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectOnHold    ProjectStatus = "On Hold"
	ProjectAtRisk    ProjectStatus = "At Risk"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectAtRisk:
		return true
	}
	return false
}

type Methodology string

const (
	MethodologyWaterfall Methodology = "Waterfall"
	MethodologyScrum     Methodology = "Scrum"
	MethodologyHybrid    Methodology = "Hybrid"
)

func (m Methodology) Valid() bool {
	switch m {
	case MethodologyWaterfall, MethodologyScrum, MethodologyHybrid:
		return true
	}
	return false
}

// ProjectKPI is a lightweight metric embedded in the project record.
type ProjectKPI struct {
	Name    string  `json:"name"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Unit    string  `json:"unit"`
}

type Project struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Methodology Methodology   `json:"methodology"`
	Progress    int           `json:"progress"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Budget      float64       `json:"budget"`
	BudgetUsed  float64       `json:"budget_used"`
	Color       string        `json:"color"`
	ManagerID   int64         `json:"manager_id"`
	MemberIDs   []int64       `json:"member_ids"`
	KPIs        []ProjectKPI  `json:"kpis"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// HasMember reports whether userID is the manager or a member.
func (p *Project) HasMember(userID int64) bool {
	if p.ManagerID == userID {
		return true
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// BudgetUsage is budgetUsed/budget as a rounded percentage; budgetUsed is not clamped.
func (p *Project) BudgetUsage() int {
	return Percent(p.BudgetUsed, p.Budget)
}

type ProjectFilter struct {
	Search      *string
	Status      *ProjectStatus
	Methodology *Methodology
	MemberID    *int64
	Limit       int
	Offset      int
}

// ProjectPatch carries a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Title       *string
	Description *string
	Status      *ProjectStatus
	Methodology *Methodology
	Progress    *int
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	BudgetUsed  *float64
	Color       *string
}

type ProjectStatusCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	AtRisk    int `json:"at_risk"`
	OnHold    int `json:"on_hold"`
}

type TimelinePhase struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
}

type ProjectTimeline struct {
	ProjectID int64           `json:"project_id"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Phases    []TimelinePhase `json:"phases"`
}

type SprintVelocity struct {
	Name    string `json:"name"`
	Planned int    `json:"planned"`
	Actual  int    `json:"actual"`
}

type ProjectKPIReport struct {
	KPIs           []ProjectKPI     `json:"kpis"`
	BudgetUsage    int              `json:"budget_usage"`
	Budget         float64          `json:"budget"`
	BudgetUsed     float64          `json:"budget_used"`
	TaskCompletion int              `json:"task_completion"`
	SprintVelocity []SprintVelocity `json:"sprint_velocity"`
}

type ProjectMembers struct {
	Manager *User  `json:"manager"`
	Members []User `json:"members"`
}
