package dto

import (
	"time"

	"github.com/spec-kit/ops-desk/internal/domain"
)

// RegisterUserRequest payload for POST /users.
type RegisterUserRequest struct {
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
	PhoneNumber          string `json:"phone_number"`
	NationalID           string `json:"national_id"`
	ServiceDomain        string `json:"service_domain"`
	EmploymentLevel      string `json:"employment_level"`
	// DateOfJoining is YYYY-MM-DD; empty means today.
	DateOfJoining  string `json:"date_of_joining"`
	SalaryCents    int64  `json:"salary_cents"`
	Certifications string `json:"certifications"`
}

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session established by a login.
type LoginResponse struct {
	UserID    int64       `json:"user_id"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// UserResponse is the public view of an account. The password hash and
// salary never leave the service.
type UserResponse struct {
	ID              int64       `json:"id"`
	FullName        string      `json:"full_name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	PhoneNumber     string      `json:"phone_number,omitempty"`
	ServiceDomain   string      `json:"service_domain,omitempty"`
	EmploymentLevel string      `json:"employment_level,omitempty"`
	DateOfJoining   string      `json:"date_of_joining"`
	Certifications  string      `json:"certifications,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		FullName:        user.FullName,
		Email:           user.Email,
		Role:            user.Role,
		PhoneNumber:     user.PhoneNumber,
		ServiceDomain:   user.ServiceDomain,
		EmploymentLevel: user.EmploymentLevel,
		DateOfJoining:   user.DateOfJoining.Format(time.DateOnly),
		Certifications:  user.Certifications,
		CreatedAt:       user.CreatedAt,
	}
}
