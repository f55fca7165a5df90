package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
)

// ErrorResponse represents a generic error payload with a stable code and the
// request ID for debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response with the request ID from context.
func NewErrorResponse(c *gin.Context, code string) ErrorResponse {
	requestID, _ := c.Get("request_id")
	requestIDStr, _ := requestID.(string)

	return ErrorResponse{
		Error:     code,
		RequestID: requestIDStr,
	}
}

// ValidationErrorResponse groups violation codes by field.
type ValidationErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary is the public view of an account. The ID is scrambled:
// callers never see the sequential primary key.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:       security.ScrambleIdent(fmt.Sprintf("%d", account.ID)),
		Username: account.Username,
		Email:    account.Email,
	}
}

// LoginRequest defines the payload for the login endpoint. Ident may be an
// email address or a username.
type LoginRequest struct {
	Ident    string `json:"ident"`
	Password string `json:"password"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Account AccountSummary `json:"account"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationResponse contains the created account.
type RegistrationResponse struct {
	Account AccountSummary `json:"account"`
	Message string         `json:"message"`
}

// ActivationRequest carries the parameters from an activation link.
type ActivationRequest struct {
	Ident string `json:"ident"`
	Token string `json:"token"`
}

// ValidatePasswordRequest carries a standalone password policy check.
type ValidatePasswordRequest struct {
	Ident    string `json:"ident"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendPasswordResetRequest initiates the forgot-password flow.
type SendPasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the parameters from a reset link plus the new
// password.
type ResetPasswordRequest struct {
	Ident    string `json:"ident"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
