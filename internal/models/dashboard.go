package models

// DashboardStats is the headline block of the home dashboard.
type DashboardStats struct {
	TotalProjects           int `json:"total_projects"`
	ActiveProjects          int `json:"active_projects"`
	ActiveTasks             int `json:"active_tasks"`
	CompletedTasksThisMonth int `json:"completed_tasks_this_month"`
}

type KPISummary struct {
	CompletionRate int `json:"completion_rate"`
	BudgetUsage    int `json:"budget_usage"`
	OnTimeDelivery int `json:"on_time_delivery"`
}

type RiskAlerts struct {
	AtRiskProjects []Project `json:"at_risk_projects"`
	OverdueTasks   []Task    `json:"overdue_tasks"`
	CriticalCount  int       `json:"critical_count"`
}

type KPIDashboard struct {
	ProjectSuccessRate int `json:"project_success_rate"`
	TaskCompletionRate int `json:"task_completion_rate"`
	ActiveIssues       int `json:"active_issues"`
}

type ProjectPerformance struct {
	Name   string `json:"name"`
	OnTime int    `json:"on_time"`
	Budget int    `json:"budget"`
}

type CompletionStats struct {
	TotalCompleted int `json:"total_completed"`
	OnTime         int `json:"on_time"`
	OnTimeRate     int `json:"on_time_rate"`
}

type ActiveIssues struct {
	Total   int    `json:"total"`
	Blocked []Task `json:"blocked"`
	Overdue []Task `json:"overdue"`
}

type DepartmentPerformance struct {
	Department     string `json:"department"`
	Members        int    `json:"members"`
	CompletedTasks int    `json:"completed_tasks"`
	XP             int    `json:"xp"`
}

// SearchResults groups global search hits by entity kind.
type SearchResults struct {
	Projects  []SearchHit `json:"projects"`
	Tasks     []SearchHit `json:"tasks"`
	Documents []SearchHit `json:"documents"`
	Users     []SearchHit `json:"users"`
}

type SearchHit struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}
