package domain

import (
	"strings"
	"time"
)

// Role enumerates the fixed access roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleClient  Role = "client"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleManager, RoleStaff, RoleClient}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	for _, candidate := range Roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// ParseRole normalizes user input into a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User is an account known to the identity store.
type User struct {
	ID              int64
	FullName        string
	Email           string
	PhoneNumber     string
	NationalID      string
	ServiceDomain   string
	Role            Role
	EmploymentLevel string
	DateOfJoining   time.Time
	SalaryCents     int64
	Certifications  string
	PasswordHash    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Registration carries the input for creating a user.
type Registration struct {
	FullName        string
	Email           string
	PhoneNumber     string
	NationalID      string
	ServiceDomain   string
	Role            Role
	EmploymentLevel string
	DateOfJoining   time.Time
	SalaryCents     int64
	Certifications  string
	Password        string
}
