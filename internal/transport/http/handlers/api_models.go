package handlers

import (
	"time"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PrincipalResponse is the dashboard's view of the signed-in user.
type PrincipalResponse struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	DisplayName       string  `json:"displayName"`
	Role              string  `json:"role"`
	Phone             *string `json:"phone,omitempty"`
	IsVerified        bool    `json:"isVerified"`
	LandlordProfileID *string `json:"landlordProfileId,omitempty"`
	TenantProfileID   *string `json:"tenantProfileId,omitempty"`
}

func newPrincipalResponse(p domain.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:                p.ID,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		Role:              string(p.Role),
		Phone:             p.Phone,
		IsVerified:        p.IsVerified,
		LandlordProfileID: p.LandlordProfileID,
		TenantProfileID:   p.TenantProfileID,
	}
}

// SessionResponse is returned by login and refresh. Tokens travel in cookies only.
type SessionResponse struct {
	Success          bool              `json:"success"`
	User             PrincipalResponse `json:"user"`
	AccessExpiresAt  time.Time         `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time         `json:"refreshExpiresAt"`
}

// CurrentUserResponse wraps the authenticated principal.
type CurrentUserResponse struct {
	Success bool              `json:"success"`
	User    PrincipalResponse `json:"user"`
}

// SessionStatusResponse reports whether the caller has a usable session.
type SessionStatusResponse struct {
	Success       bool               `json:"success"`
	Authenticated bool               `json:"authenticated"`
	User          *PrincipalResponse `json:"user,omitempty"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
