package dto

import (
	"time"

	"rfidstock/internal/domain/auth"
)

// LoginRequest carries the user's ERP API key pair.
type LoginRequest struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// ToAuth converts to the domain request.
func (r LoginRequest) ToAuth() auth.LoginRequest {
	return auth.LoginRequest{APIKey: r.APIKey, APISecret: r.APISecret}
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FromLoginResult maps the domain result.
func FromLoginResult(r *auth.LoginResult) LoginResponse {
	return LoginResponse{Token: r.Token, User: r.User, ExpiresAt: r.ExpiresAt}
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	User string `json:"user"`
}
