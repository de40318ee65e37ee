package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"syncdeck/internal/models/user"
	"syncdeck/internal/repository/inmemory"
	"syncdeck/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceSuite struct {
	suite.Suite

	ctx      context.Context
	users    *inmemory.UserStorage
	teams    *inmemory.TeamStorage
	requests *inmemory.DeletionRequestStorage
	svc      *service.UserService

	boss   *user.User
	lead   *user.User
	dev    *user.User
	team   *user.Team
	other  *user.Team
	hasher service.PasswordHasher
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = inmemory.NewUserStorage()
	s.teams = inmemory.NewTeamStorage(s.users)
	s.requests = inmemory.NewDeletionRequestStorage()
	s.hasher = service.PasswordHasher{Cost: bcrypt.MinCost}
	s.svc = service.NewUserService(s.users, s.teams, s.requests, s.hasher)

	s.team = &user.Team{ID: uuid.New(), Name: "core"}
	s.other = &user.Team{ID: uuid.New(), Name: "infra"}
	s.Require().NoError(s.teams.Create(s.ctx, s.team))
	s.Require().NoError(s.teams.Create(s.ctx, s.other))

	s.boss = s.addUser("boss", user.RoleGroupHead, nil)
	s.lead = s.addUser("lead", user.RoleUnitHead, &s.team.ID)
	s.dev = s.addUser("dev", user.RoleMember, &s.team.ID)
}

func (s *UserServiceSuite) addUser(name string, role user.Role, team *uuid.UUID) *user.User {
	u := &user.User{ID: uuid.New(), Username: name, Role: role, TeamID: team}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *UserServiceSuite) code(err error) string {
	busErr, ok := service.AsBusinessError(err)
	s.Require().True(ok, "ожидалась BusinessError, получено %v", err)
	return busErr.Code
}

func (s *UserServiceSuite) TestCreate_Permissions() {
	tests := []struct {
		name     string
		current  *user.User
		in       service.CreateUserInput
		wantCode string
	}{
		{"group head создаёт руководителя", s.boss, service.CreateUserInput{Username: "lead2", Password: "p", Role: user.RoleUnitHead, TeamID: &s.other.ID}, ""},
		{"unit head создаёт участника своей команды", s.lead, service.CreateUserInput{Username: "dev2", Password: "p"}, ""},
		{"unit head не создаёт руководителей", s.lead, service.CreateUserInput{Username: "x", Password: "p", Role: user.RoleUnitHead}, service.CodeForbidden},
		{"unit head не создаёт в чужой команде", s.lead, service.CreateUserInput{Username: "x", Password: "p", TeamID: &s.other.ID}, service.CodeForbidden},
		{"участник не создаёт пользователей", s.dev, service.CreateUserInput{Username: "x", Password: "p"}, service.CodeForbidden},
		{"имя занято", s.boss, service.CreateUserInput{Username: "dev", Password: "p"}, service.CodeBadRequest},
		{"пустой пароль", s.boss, service.CreateUserInput{Username: "x"}, service.CodeValidation},
		{"неизвестная команда", s.boss, service.CreateUserInput{Username: "x", Password: "p", TeamID: ptr(uuid.New())}, service.CodeNotFound},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			created, err := s.svc.Create(s.ctx, tt.current, tt.in)
			if tt.wantCode != "" {
				s.Equal(tt.wantCode, s.code(err))
				return
			}
			s.Require().NoError(err)
			s.NotEqual(tt.in.Password, created.HashedPassword)
			s.True(s.hasher.Verify(created.HashedPassword, tt.in.Password))
		})
	}
}

func (s *UserServiceSuite) TestCreate_UnitHeadDefaultsToOwnTeam() {
	created, err := s.svc.Create(s.ctx, s.lead, service.CreateUserInput{Username: "newbie", Password: "p"})
	s.Require().NoError(err)
	s.Equal(user.RoleMember, created.Role)
	s.Require().NotNil(created.TeamID)
	s.Equal(s.team.ID, *created.TeamID)
}

func (s *UserServiceSuite) TestUpdate() {
	s.Run("чужой профиль менять нельзя", func() {
		name := "hacker"
		_, err := s.svc.Update(s.ctx, s.dev, s.lead.ID, service.UpdateUserInput{Username: &name})
		s.Equal(service.CodeForbidden, s.code(err))
	})

	s.Run("участник не меняет себе роль", func() {
		role := user.RoleGroupHead
		email := "dev@example.com"
		updated, err := s.svc.Update(s.ctx, s.dev, s.dev.ID, service.UpdateUserInput{Role: &role, Email: &email})
		s.Require().NoError(err)
		s.Equal(user.RoleMember, updated.Role)
		s.Equal(email, updated.Email)
	})

	s.Run("второй unit head в команде", func() {
		role := user.RoleUnitHead
		_, err := s.svc.Update(s.ctx, s.boss, s.dev.ID, service.UpdateUserInput{Role: &role})
		s.Equal(service.CodeBadRequest, s.code(err))
	})

	s.Run("group head переводит в другую команду", func() {
		updated, err := s.svc.Update(s.ctx, s.boss, s.dev.ID, service.UpdateUserInput{TeamID: &s.other.ID})
		s.Require().NoError(err)
		s.Equal(s.other.ID, *updated.TeamID)

		updated, err = s.svc.Update(s.ctx, s.boss, s.dev.ID, service.UpdateUserInput{ClearTeam: true})
		s.Require().NoError(err)
		s.Nil(updated.TeamID)
	})
}

func (s *UserServiceSuite) TestDelete() {
	s.Equal(service.CodeForbidden, s.code(s.svc.Delete(s.ctx, s.lead, s.dev.ID)))
	s.Equal(service.CodeNotFound, s.code(s.svc.Delete(s.ctx, s.boss, uuid.New())))

	s.Require().NoError(s.svc.Delete(s.ctx, s.boss, s.dev.ID))
	_, err := s.users.GetByID(s.ctx, s.dev.ID)
	s.Error(err)
}

func (s *UserServiceSuite) TestDeletionRequestFlow() {
	_, err := s.svc.RequestDeletion(s.ctx, s.dev, s.lead.ID, "")
	s.Equal(service.CodeForbidden, s.code(err))

	outsider := s.addUser("outsider", user.RoleMember, &s.other.ID)
	_, err = s.svc.RequestDeletion(s.ctx, s.lead, outsider.ID, "чужой")
	s.Equal(service.CodeForbidden, s.code(err))

	req, err := s.svc.RequestDeletion(s.ctx, s.lead, s.dev.ID, "ушёл из компании")
	s.Require().NoError(err)
	s.Equal(user.DeletionPending, req.Status)

	_, err = s.svc.RequestDeletion(s.ctx, s.lead, s.dev.ID, "ещё раз")
	s.Equal(service.CodeBadRequest, s.code(err))

	_, err = s.svc.ListDeletionRequests(s.ctx, s.lead, user.DeletionPending)
	s.Equal(service.CodeForbidden, s.code(err))

	pending, err := s.svc.ListDeletionRequests(s.ctx, s.boss, user.DeletionPending)
	s.Require().NoError(err)
	s.Len(pending, 1)

	res, err := s.svc.ReviewDeletion(s.ctx, s.boss, req.ID, true)
	s.Require().NoError(err)
	s.Equal("Deletion request approved", res.Message)
	s.Equal(user.DeletionApproved, res.Request.Status)
	s.Require().NotNil(res.Request.ReviewedByID)
	s.Equal(s.boss.ID, *res.Request.ReviewedByID)

	_, err = s.users.GetByID(s.ctx, s.dev.ID)
	s.Error(err)

	_, err = s.svc.ReviewDeletion(s.ctx, s.boss, req.ID, false)
	s.Equal(service.CodeBadRequest, s.code(err))
}

func (s *UserServiceSuite) TestReviewDeletion_Rejected() {
	req, err := s.svc.RequestDeletion(s.ctx, s.lead, s.dev.ID, "")
	s.Require().NoError(err)

	res, err := s.svc.ReviewDeletion(s.ctx, s.boss, req.ID, false)
	s.Require().NoError(err)
	s.Equal(user.DeletionRejected, res.Request.Status)

	_, err = s.users.GetByID(s.ctx, s.dev.ID)
	s.NoError(err)
}

func (s *UserServiceSuite) TestEnsureGroupHead() {
	s.Require().NoError(s.svc.EnsureGroupHead(s.ctx, "root", "root@example.com", "secret"))
	s.Require().NoError(s.svc.EnsureGroupHead(s.ctx, "root", "root@example.com", "other"))

	root, err := s.users.GetByUsername(s.ctx, "root")
	s.Require().NoError(err)
	s.Equal(user.RoleGroupHead, root.Role)
	s.True(s.hasher.Verify(root.HashedPassword, "secret"))
}

func TestTeamService(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTeamService(inmemory.NewTeamStorage(nil))
	boss := &user.User{ID: uuid.New(), Role: user.RoleGroupHead}
	lead := &user.User{ID: uuid.New(), Role: user.RoleUnitHead}

	_, err := svc.Create(ctx, lead, "core")
	require.Equal(t, service.CodeForbidden, businessCode(t, err))

	team, err := svc.Create(ctx, boss, " core ")
	require.NoError(t, err)
	require.Equal(t, "core", team.Name)

	_, err = svc.Create(ctx, boss, "CORE")
	require.Equal(t, service.CodeBadRequest, businessCode(t, err))

	require.Equal(t, service.CodeForbidden, businessCode(t, svc.Delete(ctx, lead, team.ID)))
	require.NoError(t, svc.Delete(ctx, boss, team.ID))
	require.Equal(t, service.CodeNotFound, businessCode(t, svc.Delete(ctx, boss, team.ID)))
}

func TestUserService_ReviewDeletion_UserDeleteFails(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	requests := inmemory.NewDeletionRequestStorage()
	svc := service.NewUserService(users, inmemory.NewTeamStorage(nil), requests, service.PasswordHasher{Cost: bcrypt.MinCost})

	boss := &user.User{ID: uuid.New(), Role: user.RoleGroupHead}
	req := &user.DeletionRequest{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		RequestedByID: uuid.New(),
		Status:        user.DeletionPending,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, requests.Create(ctx, req))

	users.On("Delete", mock.Anything, req.UserID).Return(errors.New("connection reset")).Once()

	_, err := svc.ReviewDeletion(ctx, boss, req.ID, true)
	require.Error(t, err)

	stored, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, user.DeletionPending, stored.Status)
	assert.Nil(t, stored.ReviewedAt)
	assert.Nil(t, stored.ReviewedByID)

	// заявку можно рассмотреть повторно
	users.On("Delete", mock.Anything, req.UserID).Return(nil).Once()
	res, err := svc.ReviewDeletion(ctx, boss, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, user.DeletionApproved, res.Request.Status)
	users.AssertExpectations(t)
}

func ptr[T any](v T) *T {
	return &v
}
