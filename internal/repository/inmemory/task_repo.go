package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage хранит копии задач, наружу тоже отдаются копии
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Хранилище в памяти доступно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now().UTC()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Update проходит, только если версия совпадает с сохранённой
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		logger.Warn("Repository: Конфликт версий при обновлении задачи")
		return repo.ErrVersionConflict
	}

	now := time.Now().UTC()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) List(ctx context.Context, filter task.Filter, page, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	matched := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if filter.Matches(t) {
			matched = append(matched, t.Clone())
		}
	}
	s.mtx.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if filter.OrderByCompleted {
			return timeOf(matched[i].CompletedAt).After(timeOf(matched[j].CompletedAt))
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit <= 0 {
		return matched, nil
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []*task.Task{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// MarkViewed отмечает первый просмотр, повторный вызов время не меняет
func (s *TaskStorage) MarkViewed(ctx context.Context, taskID, userID uuid.UUID, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	a := t.Assignment(userID)
	if a == nil {
		return repo.ErrNotFound
	}
	if a.ViewedAt == nil {
		viewed := at
		a.ViewedAt = &viewed
	}
	return nil
}

// GetTasksDueBefore: незавершённые задачи с дедлайном раньше deadline, о которых ещё не напоминали
func (s *TaskStorage) GetTasksDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var tasks []*task.Task
	for _, id := range s.ids {
		if limit > 0 && len(tasks) >= limit {
			break
		}

		t := s.storage[id]
		if t.Status != task.StatusCompleted &&
			t.Deadline != nil &&
			t.RemindedAt == nil &&
			t.Deadline.Before(deadline) {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

func (s *TaskStorage) MarkReminded(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	reminded := at
	t.RemindedAt = &reminded
	return nil
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
