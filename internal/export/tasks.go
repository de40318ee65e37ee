package export

import (
	"strconv"
	"strings"
	"time"

	"syncdeck/internal/models/task"

	"github.com/google/uuid"
)

// NameLookup возвращает имя пользователя по id; пустая строка - неизвестен
type NameLookup func(uuid.UUID) string

var taskHeader = []string{"ID", "Title", "Status", "Criticality", "Progress", "Assigner", "Assignees", "Deadline", "Created At", "Completed At", "Internal"}

// TasksCSV - выгрузка списка задач в том виде, в каком он уже получен
func TasksCSV(tasks []*task.Task, names NameLookup) ([]byte, error) {
	records := make([][]string, 0, len(tasks)+1)
	records = append(records, taskHeader)
	for _, t := range tasks {
		assignees := make([]string, 0, len(t.Assignees))
		for _, id := range t.AssigneeIDs() {
			assignees = append(assignees, lookup(names, id))
		}
		records = append(records, []string{
			t.UUID.String(),
			t.Title,
			string(t.Status),
			string(t.Criticality),
			strconv.Itoa(t.Progress) + "%",
			lookup(names, t.AssignerID),
			strings.Join(assignees, "; "),
			formatTime(t.Deadline),
			formatTime(&t.CreatedAt),
			formatTime(t.CompletedAt),
			strconv.FormatBool(t.IsInternal),
		})
	}
	return WriteCSV(records)
}

var timelineHeader = []string{"Date", "User", "Type", "Description"}

func TimelineCSV(activities []*task.Activity, names NameLookup) ([]byte, error) {
	records := make([][]string, 0, len(activities)+1)
	records = append(records, timelineHeader)
	for _, a := range activities {
		records = append(records, []string{
			formatTime(&a.CreatedAt),
			lookup(names, a.UserID),
			string(a.Type),
			a.Description,
		})
	}
	return WriteCSV(records)
}

func lookup(names NameLookup, id uuid.UUID) string {
	if names != nil {
		if n := names(id); n != "" {
			return n
		}
	}
	return id.String()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
