package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
	RoleClient   Role = "CLIENT"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Active       bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
