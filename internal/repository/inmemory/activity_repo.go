package inmemory

import (
	"context"
	"sort"
	"sync"

	"syncdeck/internal/models/task"

	"github.com/google/uuid"
)

// ActivityStorage - лента событий, обновления прогресса и запросы помощи
type ActivityStorage struct {
	mtx        *sync.RWMutex
	activities map[uuid.UUID][]*task.Activity
	updates    map[uuid.UUID][]*task.ProgressUpdate
	help       map[uuid.UUID][]*task.HelpRequest
}

func NewActivityStorage() *ActivityStorage {
	return &ActivityStorage{
		mtx:        &sync.RWMutex{},
		activities: make(map[uuid.UUID][]*task.Activity),
		updates:    make(map[uuid.UUID][]*task.ProgressUpdate),
		help:       make(map[uuid.UUID][]*task.HelpRequest),
	}
}

func (s *ActivityStorage) AddActivity(ctx context.Context, a *task.Activity) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *a
	s.activities[a.TaskID] = append(s.activities[a.TaskID], &stored)
	return nil
}

// ListActivities - новые события первыми
func (s *ActivityStorage) ListActivities(ctx context.Context, taskID uuid.UUID) ([]*task.Activity, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := s.activities[taskID]
	res := make([]*task.Activity, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		a := *list[i]
		res = append(res, &a)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *ActivityStorage) AddProgressUpdate(ctx context.Context, u *task.ProgressUpdate) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *u
	s.updates[u.TaskID] = append(s.updates[u.TaskID], &stored)
	return nil
}

func (s *ActivityStorage) AddHelpRequest(ctx context.Context, r *task.HelpRequest) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *r
	s.help[r.TaskID] = append(s.help[r.TaskID], &stored)
	return nil
}

func (s *ActivityStorage) TasksWithHelpRequests(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if len(s.help[id]) > 0 {
			res[id] = true
		}
	}
	return res, nil
}

// ProgressUpdates нужен тестам и выгрузкам, сервису хватает ленты
func (s *ActivityStorage) ProgressUpdates(taskID uuid.UUID) []task.ProgressUpdate {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]task.ProgressUpdate, 0, len(s.updates[taskID]))
	for _, u := range s.updates[taskID] {
		res = append(res, *u)
	}
	return res
}
