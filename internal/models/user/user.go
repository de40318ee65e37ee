package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember         Role = "member"
	RoleUnitHead       Role = "unit_head"
	RoleBackupUnitHead Role = "backup_unit_head"
	RoleGroupHead      Role = "group_head"
)

// Roles перечисляет все роли; любая другая строка ролью не является
var Roles = []Role{RoleMember, RoleUnitHead, RoleBackupUnitHead, RoleGroupHead}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("неизвестная роль %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleUnitHead, RoleBackupUnitHead, RoleGroupHead:
		return true
	}
	return false
}

// IsHead - unit head, его заместитель или group head
func (r Role) IsHead() bool {
	switch r {
	case RoleUnitHead, RoleBackupUnitHead, RoleGroupHead:
		return true
	case RoleMember:
		return false
	}
	return false
}

// IsUnitLevelHead - руководитель команды или его заместитель
func (r Role) IsUnitLevelHead() bool {
	switch r {
	case RoleUnitHead, RoleBackupUnitHead:
		return true
	case RoleMember, RoleGroupHead:
		return false
	}
	return false
}

func (r Role) CanCreateTasks() bool {
	return r.IsHead()
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	HashedPassword string     `json:"-" db:"hashed_password"`
	Role           Role       `json:"role" db:"role"`
	TeamID         *uuid.UUID `json:"team_id,omitempty" db:"team_id"`
	MFASecret      string     `json:"-" db:"mfa_secret"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) MFAEnabled() bool {
	return u.MFASecret != ""
}

// InTeam сравнивает команду пользователя с teamID, nil команды не совпадают
func (u *User) InTeam(teamID *uuid.UUID) bool {
	if u.TeamID == nil || teamID == nil {
		return false
	}
	return *u.TeamID == *teamID
}

type Team struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
