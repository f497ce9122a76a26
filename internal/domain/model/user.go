package model

import (
	"time"
)

type UserStatus int
type UserRole int

const (
	StatusDeleted UserStatus = 0
	StatusActive  UserStatus = 10
)

// Player accounts are issued for contests and may not edit their own
// nickname or password.
const (
	RolePlayer    UserRole = 0
	RoleUser      UserRole = 10
	RoleModerator UserRole = 20
	RoleAdmin     UserRole = 30
)

func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusDeleted
}

func (r UserRole) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleUser:
		return "user"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

type User struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	Nickname           string     `json:"nickname"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // Not exposed
	AuthKey            string     `json:"-"`
	PasswordResetToken *string    `json:"-"`
	Status             UserStatus `json:"status"`
	Role               UserRole   `json:"role"`
	Language           int        `json:"language"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}
