package inmemory

import (
	"context"
	"sort"
	"sync"

	"syncdeck/internal/models/user"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
)

type UserStorage struct {
	mtx        *sync.RWMutex
	storage    map[uuid.UUID]*user.User
	byUsername map[string]uuid.UUID
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		mtx:        &sync.RWMutex{},
		storage:    make(map[uuid.UUID]*user.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *UserStorage) Create(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, taken := s.byUsername[u.Username]; taken {
		return repo.ErrAlreadyExists
	}
	s.storage[u.ID] = copyUser(u)
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *UserStorage) Update(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Username != u.Username {
		if _, taken := s.byUsername[u.Username]; taken {
			return repo.ErrAlreadyExists
		}
		delete(s.byUsername, existed.Username)
		s.byUsername[u.Username] = u.ID
	}
	s.storage[u.ID] = copyUser(u)
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyUser(s.storage[id]), nil
}

// List - пользователи по дате создания
func (s *UserStorage) List(ctx context.Context, page, limit int) ([]*user.User, error) {
	s.mtx.RLock()
	res := make([]*user.User, 0, len(s.storage))
	for _, u := range s.storage {
		res = append(res, copyUser(u))
	}
	s.mtx.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].Username < res[j].Username
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})

	if limit <= 0 {
		return res, nil
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset >= len(res) {
		return []*user.User{}, nil
	}
	end := offset + limit
	if end > len(res) {
		end = len(res)
	}
	return res[offset:end], nil
}

func (s *UserStorage) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*user.User{}
	for _, u := range s.storage {
		if u.TeamID != nil && *u.TeamID == teamID {
			res = append(res, copyUser(u))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Username < res[j].Username
	})
	return res, nil
}

func (s *UserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	u, ok := s.storage[id]
	if !ok {
		return repo.ErrNotFound
	}
	delete(s.byUsername, u.Username)
	delete(s.storage, id)
	return nil
}

// detachTeam убирает удалённую команду у её участников
func (s *UserStorage) detachTeam(teamID uuid.UUID) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, u := range s.storage {
		if u.TeamID != nil && *u.TeamID == teamID {
			u.TeamID = nil
		}
	}
}

func copyUser(u *user.User) *user.User {
	c := *u
	if u.TeamID != nil {
		teamID := *u.TeamID
		c.TeamID = &teamID
	}
	return &c
}
