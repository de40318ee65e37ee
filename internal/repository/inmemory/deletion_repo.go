package inmemory

import (
	"context"
	"sort"
	"sync"

	"syncdeck/internal/models/user"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
)

type DeletionRequestStorage struct {
	mtx     *sync.RWMutex
	storage map[uuid.UUID]*user.DeletionRequest
}

func NewDeletionRequestStorage() *DeletionRequestStorage {
	return &DeletionRequestStorage{
		mtx:     &sync.RWMutex{},
		storage: make(map[uuid.UUID]*user.DeletionRequest),
	}
}

func (s *DeletionRequestStorage) Create(ctx context.Context, r *user.DeletionRequest) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := *r
	s.storage[r.ID] = &stored
	return nil
}

func (s *DeletionRequestStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.DeletionRequest, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	r, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *r
	return &res, nil
}

func (s *DeletionRequestStorage) Update(ctx context.Context, r *user.DeletionRequest) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[r.ID]; !ok {
		return repo.ErrNotFound
	}
	stored := *r
	s.storage[r.ID] = &stored
	return nil
}

func (s *DeletionRequestStorage) List(ctx context.Context, status user.DeletionStatus) ([]*user.DeletionRequest, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*user.DeletionRequest{}
	for _, r := range s.storage {
		if status != "" && r.Status != status {
			continue
		}
		c := *r
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *DeletionRequestStorage) FindPending(ctx context.Context, userID uuid.UUID) (*user.DeletionRequest, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, r := range s.storage {
		if r.UserID == userID && r.Status == user.DeletionPending {
			res := *r
			return &res, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *DeletionRequestStorage) DeleteApproved(ctx context.Context, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, r := range s.storage {
		if r.UserID == userID && r.Status == user.DeletionApproved {
			delete(s.storage, id)
		}
	}
	return nil
}
