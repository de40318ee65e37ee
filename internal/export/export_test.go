package export_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"syncdeck/internal/export"
	"syncdeck/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAchievementsCSV(t *testing.T) {
	completed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	long := strings.Repeat("x", 120)

	body, err := export.AchievementsCSV([]export.AchievementRow{
		{Title: "Отчёт", Description: "коротко", CompletedAt: &completed, Criticality: "high", AssignedBy: "boss"},
		{Title: "Без автора", Description: long, Criticality: "low"},
	})
	require.NoError(t, err)

	records := readCSV(t, body)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Task Name", "Completion Date", "Criticality", "Assigned By", "Description"}, records[0])
	assert.Equal(t, []string{"Отчёт", "2025-03-14 09:26", "HIGH", "boss", "коротко"}, records[1])

	assert.Equal(t, "", records[2][1])
	assert.Equal(t, "N/A", records[2][3])
	assert.Len(t, records[2][4], 100)
	assert.True(t, strings.HasSuffix(records[2][4], "..."))
}

func TestAchievements_Formats(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := []export.AchievementRow{{Title: "t", Criticality: "medium", AssignedBy: "a"}}

	csvReport, err := export.Achievements(export.FormatCSV, "alice", "week", rows, now)
	require.NoError(t, err)
	assert.Equal(t, "achievements_alice_week.csv", csvReport.Filename)
	assert.Equal(t, "text/csv", csvReport.ContentType)

	pdfReport, err := export.Achievements(export.FormatPDF, "alice", "all", rows, now)
	require.NoError(t, err)
	assert.Equal(t, "achievements_alice_all.pdf", pdfReport.Filename)
	assert.Equal(t, "application/pdf", pdfReport.ContentType)
	assert.True(t, bytes.HasPrefix(pdfReport.Body, []byte("%PDF-")))

	_, err = export.Achievements("xlsx", "alice", "all", rows, now)
	assert.Error(t, err)
}

func TestAchievementsPDF_Empty(t *testing.T) {
	body, err := export.AchievementsPDF("bob", "month", nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestTasksCSV(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	deadline := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	tk := &task.Task{
		UUID:        uuid.New(),
		Title:       "Подготовить релиз",
		Status:      task.StatusOngoing,
		Criticality: task.CriticalityHigh,
		Progress:    45,
		AssignerID:  alice,
		Assignees:   []task.Assignment{{UserID: bob}},
		Deadline:    &deadline,
		CreatedAt:   deadline.Add(-time.Hour),
	}
	names := func(id uuid.UUID) string {
		if id == alice {
			return "alice"
		}
		return ""
	}

	body, err := export.TasksCSV([]*task.Task{tk}, names)
	require.NoError(t, err)

	records := readCSV(t, body)
	require.Len(t, records, 2)
	row := records[1]
	assert.Equal(t, "Подготовить релиз", row[1])
	assert.Equal(t, "45%", row[4])
	assert.Equal(t, "alice", row[5])
	assert.Equal(t, bob.String(), row[6])
	assert.Equal(t, "2025-01-02 03:04", row[7])
	assert.Equal(t, "", row[9])
}

func TestTimelineCSV(t *testing.T) {
	a := task.NewActivity(uuid.New(), uuid.New(), task.ActivityHelpRequested, "Requested help: застрял, нужен доступ")

	body, err := export.TimelineCSV([]*task.Activity{a}, nil)
	require.NoError(t, err)

	records := readCSV(t, body)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Date", "User", "Type", "Description"}, records[0])
	assert.Equal(t, "help_requested", records[1][2])
	assert.Equal(t, "Requested help: застрял, нужен доступ", records[1][3])
}
