package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectReportWithoutFont(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	g := NewReportGenerator("")

	var buf bytes.Buffer
	err := g.ProjectReport(&buf, ProjectReportData{
		Title:       "Website relaunch",
		Status:      "Active",
		Methodology: "Scrum",
		Manager:     "Ayla",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Progress:    40,
		Budget:      1000,
		BudgetUsed:  1200,
		BudgetUsage: 120,
		TaskCounts:  map[string]int{"Todo": 2, "Done": 3},
		Sprints:     []SprintLine{{Name: "Sprint 1", Status: "Completed", Planned: 5, Actual: 3}},
		Tasks:       []TaskLine{{Title: "Write the landing page copy", Status: "Todo", Priority: "High", Due: &due}},
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestProjectReportMissingFontFallsBack(t *testing.T) {
	g := NewReportGenerator("/nonexistent/font.ttf")
	var buf bytes.Buffer
	require.NoError(t, g.ProjectReport(&buf, ProjectReportData{Title: "Empty", GeneratedAt: time.Now()}))
	assert.NotZero(t, buf.Len())
}
