package model

import "fmt"

// Role is the numeric role the backend issues at login.
type Role int

const (
	RoleAdmin   Role = 0
	RoleTeacher Role = 1
	RoleStudent Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r >= RoleAdmin && r <= RoleStudent
}

// User is the authenticated account. For students, ID doubles as the student id.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}
