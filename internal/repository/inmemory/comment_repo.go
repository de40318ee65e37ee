package inmemory

import (
	"context"
	"sort"
	"sync"

	"syncdeck/internal/models/task"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
)

type CommentStorage struct {
	mtx     *sync.RWMutex
	storage map[uuid.UUID]*task.Comment
}

func NewCommentStorage() *CommentStorage {
	return &CommentStorage{
		mtx:     &sync.RWMutex{},
		storage: make(map[uuid.UUID]*task.Comment),
	}
}

func (s *CommentStorage) Create(ctx context.Context, c *task.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *c
	s.storage[c.ID] = &stored
	return nil
}

func (s *CommentStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *c
	return &res, nil
}

func (s *CommentStorage) Update(ctx context.Context, c *task.Comment) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[c.ID]; !ok {
		return repo.ErrNotFound
	}
	stored := *c
	s.storage[c.ID] = &stored
	return nil
}

func (s *CommentStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

// ListByTask - комментарии в порядке добавления
func (s *CommentStorage) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Comment{}
	for _, c := range s.storage {
		if c.TaskID == taskID {
			cp := *c
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}
