package client

import (
	"syncdeck/internal/export"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"

	"github.com/google/uuid"
)

// UserNames строит подстановку имён для выгрузки из уже загруженного списка пользователей
func UserNames(users []user.User) export.NameLookup {
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return func(id uuid.UUID) string {
		return names[id]
	}
}

// ExportTasksCSV формирует CSV из уже полученного списка, без запроса к серверу
func ExportTasksCSV(tasks []Task, names export.NameLookup) ([]byte, error) {
	models := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		models = append(models, t.model())
	}
	return export.TasksCSV(models, names)
}

func ExportTimelineCSV(activities []task.Activity, names export.NameLookup) ([]byte, error) {
	list := make([]*task.Activity, 0, len(activities))
	for i := range activities {
		list = append(list, &activities[i])
	}
	return export.TimelineCSV(list, names)
}
