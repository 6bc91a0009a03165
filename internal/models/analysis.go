package models

import "time"

type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisAnalyzing AnalysisStatus = "analyzing"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

type Finding struct {
	Type    string `json:"type"` // positive | negative
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"`
}

type Risk struct {
	Severity string `json:"severity"` // low | medium | high | critical
	Content  string `json:"content"`
	Page     int    `json:"page,omitempty"`
	Section  string `json:"section,omitempty"`
}

// AnalysisAction is a suggested (id prefix "s-") or user-entered (id prefix "u-") follow-up.
type AnalysisAction struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Priority      string `json:"priority"` // low | medium | high
	CanCreateTask bool   `json:"can_create_task"`
	AddedAsTask   bool   `json:"added_as_task"`
	TaskID        *int64 `json:"task_id,omitempty"`
}

type Analysis struct {
	ID               int64            `json:"id"`
	DocumentID       int64            `json:"document_id"`
	Status           AnalysisStatus   `json:"status"`
	Summary          string           `json:"summary"`
	Findings         []Finding        `json:"findings"`
	Risks            []Risk           `json:"risks"`
	SuggestedActions []AnalysisAction `json:"suggested_actions"`
	UserActions      []AnalysisAction `json:"user_actions"`
	Tags             []string         `json:"tags"`
	AIModel          string           `json:"ai_model"`
	Confidence       int              `json:"confidence"`
	AnalyzedAt       *time.Time       `json:"analyzed_at,omitempty"`
	SavedAt          *time.Time       `json:"saved_at,omitempty"`
	SharedWith       []int64          `json:"shared_with"`
	ShareLink        string           `json:"share_link,omitempty"`
	ShareToken       string           `json:"-"`
	CreatedBy        int64            `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// FindAction returns a pointer into SuggestedActions or UserActions for id.
func (a *Analysis) FindAction(id string) *AnalysisAction {
	for i := range a.SuggestedActions {
		if a.SuggestedActions[i].ID == id {
			return &a.SuggestedActions[i]
		}
	}
	for i := range a.UserActions {
		if a.UserActions[i].ID == id {
			return &a.UserActions[i]
		}
	}
	return nil
}

type AnalysisFilter struct {
	DocumentID *int64
	Status     *AnalysisStatus
}
