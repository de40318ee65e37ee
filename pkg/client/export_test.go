package client

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestExportTasksCSV_UsesLoadedNames(t *testing.T) {
	boss, worker := uuid.New(), uuid.New()
	users := []user.User{{ID: boss, Username: "boss"}, {ID: worker, Username: "worker"}}
	tasks := []Task{{
		ID:          uuid.New(),
		Title:       "Квартальный отчёт",
		Status:      task.StatusOngoing,
		Criticality: task.CriticalityMedium,
		Progress:    30,
		AssignerID:  boss,
		AssigneeIDs: []uuid.UUID{worker},
	}}

	body, err := ExportTasksCSV(tasks, UserNames(users))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Квартальный отчёт", records[1][1])
	assert.Equal(t, "30%", records[1][4])
	assert.Equal(t, "boss", records[1][5])
	assert.Equal(t, "worker", records[1][6])
}

func TestExportTimelineCSV(t *testing.T) {
	who := uuid.New()
	acts := []task.Activity{
		*task.NewActivity(uuid.New(), who, task.ActivityProgressUpdate, "Progress 0% -> 50%"),
		*task.NewActivity(uuid.New(), uuid.New(), task.ActivityCommentAdded, "Comment added"),
	}

	body, err := ExportTimelineCSV(acts, UserNames([]user.User{{ID: who, Username: "alice"}}))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alice", records[1][1])
	assert.Equal(t, acts[1].UserID.String(), records[2][1])
	assert.Equal(t, "comment_added", records[2][2])
}
