package entities

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is a registered member of the club.
type User struct {
	ID                      uuid.UUID `json:"id"`
	Email                   string    `json:"email"`
	Name                    string    `json:"name"`
	Phone                   string    `json:"phone"`
	Role                    Role      `json:"role"`
	PasswordHash            string    `json:"-"`
	OnboardingReminderCount int       `json:"-"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
