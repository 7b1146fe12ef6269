package domain

import "time"

type UserRole string

const (
	RoleResearcher UserRole = "researcher"
	RoleAdmin      UserRole = "admin"
	RoleService    UserRole = "service"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleResearcher, RoleAdmin, RoleService:
		return true
	}
	return false
}

// User is the session identity. It is persisted as the "current user" singleton.
type User struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Role       UserRole `json:"role"`
	Department string   `json:"department,omitempty"`
	Phone      string   `json:"phone"`
}

// Account is a registered user together with its credential.
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	Phone        string    `json:"phone" gorm:"uniqueIndex;size:32"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role" gorm:"size:32"`
	Department   string    `json:"department,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Account) User() *User {
	return &User{
		ID:         a.ID,
		Name:       a.Name,
		Role:       a.Role,
		Department: a.Department,
		Phone:      a.Phone,
	}
}
