package v1

import (
	"time"

	"vlab/internal/store"
)

// EmptyResponse is an empty JSON object returned by mutating endpoints that
// have nothing to report.
type EmptyResponse struct{}

// LogLevelReq sets the server log level.
type LogLevelReq struct {
	Level string `json:"log_level"`
}

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// CircuitRequest carries the fields for creating or updating a circuit.
type CircuitRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Netlist     string `json:"netlist" binding:"required"`
	IsPublic    bool   `json:"is_public"`
}

// HealthResponse reports the state of the server and its dependencies.
type HealthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	NgspiceVersion string `json:"ngspice_version,omitempty"`
}
