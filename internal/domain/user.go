package domain

import "time"

type UserRole string

const (
	UserRoleBorrower UserRole = "borrower"
	UserRoleLender   UserRole = "lender"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleBorrower, UserRoleLender, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int32     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
