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

type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     user.Role
	TeamID   *uuid.UUID
}

// UpdateUserInput: nil-поля не меняются, ClearTeam убирает пользователя из команды
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	Role      *user.Role
	TeamID    *uuid.UUID
	ClearTeam bool
}

type UserService struct {
	users    UserRepository
	teams    TeamRepository
	requests DeletionRequestRepository
	hasher   PasswordHasher
}

func NewUserService(users UserRepository, teams TeamRepository, requests DeletionRequestRepository, hasher PasswordHasher) *UserService {
	return &UserService{
		users:    users,
		teams:    teams,
		requests: requests,
		hasher:   hasher,
	}
}

func (s *UserService) List(ctx context.Context, page, limit int) ([]*user.User, error) {
	users, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, current *user.User, in CreateUserInput) (*user.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, NewValidationError("username", "must not be empty")
	}
	if in.Password == "" {
		return nil, NewValidationError("password", "must not be empty")
	}
	if in.Role == "" {
		in.Role = user.RoleMember
	}
	if !in.Role.Valid() {
		return nil, NewValidationError("role", "unknown role")
	}

	switch current.Role {
	case user.RoleGroupHead:
	case user.RoleUnitHead, user.RoleBackupUnitHead:
		if in.Role != user.RoleMember {
			return nil, NewForbidden("Unit Heads can only create Members")
		}
		if in.TeamID == nil {
			in.TeamID = current.TeamID
		} else if !current.InTeam(in.TeamID) {
			return nil, NewForbidden("Unit Heads can only create Members in their own team")
		}
	case user.RoleMember:
		return nil, NewForbidden("Insufficient permissions to create users")
	}

	if err := s.checkTeam(ctx, in.TeamID); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, in.Username, "Username already registered"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:             uuid.New(),
		Username:       in.Username,
		Email:          strings.TrimSpace(in.Email),
		HashedPassword: hash,
		Role:           in.Role,
		TeamID:         in.TeamID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewBadRequest("Username already registered")
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь создан",
		zap.String("user_id", u.ID.String()),
		zap.String("role", u.Role.String()),
		zap.String("created_by", current.ID.String()))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, current *user.User, id uuid.UUID, in UpdateUserInput) (*user.User, error) {
	isSelf := current.ID == id
	isGroupHead := current.Role == user.RoleGroupHead
	if !isSelf && !isGroupHead {
		return nil, NewForbidden("Not authorized")
	}

	target, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name != "" && name != target.Username {
			if err := s.ensureUsernameFree(ctx, name, "Username already taken"); err != nil {
				return nil, err
			}
			target.Username = name
		}
	}
	if in.Email != nil {
		target.Email = strings.TrimSpace(*in.Email)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		target.HashedPassword = hash
	}

	// роль и команду меняет только group head, остальным поля молча игнорируются
	if isGroupHead {
		if in.ClearTeam {
			target.TeamID = nil
		} else if in.TeamID != nil {
			if err := s.checkTeam(ctx, in.TeamID); err != nil {
				return nil, err
			}
			target.TeamID = in.TeamID
		}

		if in.Role != nil {
			if !in.Role.Valid() {
				return nil, NewValidationError("role", "unknown role")
			}
			if err := s.ensureSingleHead(ctx, target, *in.Role); err != nil {
				return nil, err
			}
			target.Role = *in.Role
		}
	}

	if err := s.users.Update(ctx, target); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceUser, id.String())
		}
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewBadRequest("Username already taken")
		}
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	logger.Info("Service: Пользователь обновлён", zap.String("user_id", id.String()))
	return target, nil
}

// ensureSingleHead: в команде не больше одного unit head и одного заместителя
func (s *UserService) ensureSingleHead(ctx context.Context, target *user.User, role user.Role) error {
	if target.TeamID == nil || !role.IsUnitLevelHead() {
		return nil
	}

	members, err := s.users.ListByTeam(ctx, *target.TeamID)
	if err != nil {
		return fmt.Errorf("получение команды: %w", err)
	}

	for _, m := range members {
		if m.ID == target.ID || m.Role != role {
			continue
		}
		switch role {
		case user.RoleUnitHead:
			return NewBadRequest("Team already has a Unit Head: " + m.Username)
		case user.RoleBackupUnitHead:
			return NewBadRequest("Team already has a Backup Unit Head: " + m.Username)
		}
	}
	return nil
}

// Delete доступно только group head; одобренная заявка на удаление исчезает вместе с пользователем
func (s *UserService) Delete(ctx context.Context, current *user.User, id uuid.UUID) error {
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if current.Role != user.RoleGroupHead {
		return NewForbidden("Only Group Heads can delete users")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceUser, id.String())
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	if err := s.requests.DeleteApproved(ctx, id); err != nil {
		logger.Error("Service: Не удалось удалить заявку на удаление", err, zap.String("user_id", id.String()))
	}

	logger.Info("Service: Пользователь удалён",
		zap.String("user_id", id.String()),
		zap.String("deleted_by", current.ID.String()))
	return nil
}

// EnsureGroupHead создаёт первого администратора, если его ещё нет
func (s *UserService) EnsureGroupHead(ctx context.Context, username, email, password string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return fmt.Errorf("поиск администратора: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	admin := &user.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		Role:           user.RoleGroupHead,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("создание администратора: %w", err)
	}

	logger.Info("Service: Создан администратор", zap.String("username", username))
	return nil
}

func (s *UserService) getUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Пользователь не найден", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceUser, id.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username, message string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return NewBadRequest(message)
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return fmt.Errorf("проверка имени пользователя: %w", err)
	}
	return nil
}

func (s *UserService) checkTeam(ctx context.Context, teamID *uuid.UUID) error {
	if teamID == nil {
		return nil
	}
	if _, err := s.teams.GetByID(ctx, *teamID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTeam, teamID.String())
		}
		return fmt.Errorf("проверка команды: %w", err)
	}
	return nil
}
