package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"syncdeck/internal/models/user"
	repo "syncdeck/internal/repository"

	"github.com/google/uuid"
)

type TeamStorage struct {
	mtx     *sync.RWMutex
	storage map[uuid.UUID]*user.Team
	users   *UserStorage
}

// NewTeamStorage: users может быть nil, тогда участники удалённой команды не трогаются
func NewTeamStorage(users *UserStorage) *TeamStorage {
	return &TeamStorage{
		mtx:     &sync.RWMutex{},
		storage: make(map[uuid.UUID]*user.Team),
		users:   users,
	}
}

func (s *TeamStorage) Create(ctx context.Context, t *user.Team) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existed := range s.storage {
		if strings.EqualFold(existed.Name, t.Name) {
			return repo.ErrAlreadyExists
		}
	}
	stored := *t
	s.storage[t.ID] = &stored
	return nil
}

func (s *TeamStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.Team, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *t
	return &res, nil
}

func (s *TeamStorage) List(ctx context.Context) ([]*user.Team, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*user.Team, 0, len(s.storage))
	for _, t := range s.storage {
		c := *t
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res, nil
}

func (s *TeamStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	if _, ok := s.storage[id]; !ok {
		s.mtx.Unlock()
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	s.mtx.Unlock()

	if s.users != nil {
		s.users.detachTeam(id)
	}
	return nil
}
