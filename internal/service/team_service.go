package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TeamService struct {
	teams TeamRepository
}

func NewTeamService(teams TeamRepository) *TeamService {
	return &TeamService{teams: teams}
}

func (s *TeamService) List(ctx context.Context) ([]*user.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение команд: %w", err)
	}
	return teams, nil
}

func (s *TeamService) Create(ctx context.Context, current *user.User, name string) (*user.Team, error) {
	if current.Role != user.RoleGroupHead {
		return nil, NewForbidden("Not authorized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}

	team := &user.Team{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.teams.Create(ctx, team); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewBadRequest("Team with this name already exists")
		}
		return nil, fmt.Errorf("создание команды: %w", err)
	}

	logger.Info("Service: Команда создана", zap.String("team_id", team.ID.String()), zap.String("name", name))
	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	if current.Role != user.RoleGroupHead {
		return NewForbidden("Not authorized")
	}

	if err := s.teams.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTeam, id.String())
		}
		return fmt.Errorf("удаление команды: %w", err)
	}

	logger.Info("Service: Команда удалена", zap.String("team_id", id.String()))
	return nil
}
