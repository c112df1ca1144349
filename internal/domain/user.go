package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account: a trainer, a client, or an admin.
// Clients carry a nullable TrainerID linking them to their assigned trainer.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Role      string    `json:"role"`
	FirstName string    `json:"firstName"`
	FullName  string    `json:"fullName"`
	TrainerID *string   `json:"trainerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
	RoleClient  = "client"
)

// TrainerContact is the subset of trainer profile data joined into offers
// and service deliveries for notification purposes.
type TrainerContact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	FullName  string `json:"fullName"`
}

// DisplayName returns the name used to address a trainer in notifications:
// first name, then full name, then a generic fallback.
func (t TrainerContact) DisplayName() string {
	if t.FirstName != "" {
		return t.FirstName
	}
	if t.FullName != "" {
		return t.FullName
	}
	return "Trainer"
}

// LoginRequest is the validated input for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse is the API response after successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the user info returned after login.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTClaims represents the JWT payload.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUserRequest is the validated input for creating a user.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=trainer client admin"`
	FirstName string `json:"firstName" validate:"max=100"`
	FullName  string `json:"fullName" validate:"max=200"`
}

// UserResponse is the safe API response for a user (no password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FirstName string    `json:"firstName"`
	FullName  string    `json:"fullName"`
	TrainerID *string   `json:"trainerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserID generates a new UUID for a user.
func NewUserID() string {
	return uuid.New().String()
}
