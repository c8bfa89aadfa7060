package usecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

// RejectionCode is the short machine-readable code returned in rejection bodies.
type RejectionCode string

const (
	CodeMissingToken       RejectionCode = "MissingToken"
	CodeInvalidToken       RejectionCode = "InvalidToken"
	CodeRevokedToken       RejectionCode = "RevokedToken"
	CodeSessionExpired     RejectionCode = "SessionExpired"
	CodeRefreshInvalid     RejectionCode = "RefreshInvalid"
	CodeUserNotFound       RejectionCode = "UserNotFound"
	CodeUserInactive       RejectionCode = "UserInactive"
	CodeForbidden          RejectionCode = "Forbidden"
	CodeUserNotVerified    RejectionCode = "UserNotVerified"
	CodeRateLimited        RejectionCode = "RateLimited"
	CodeInvalidCredentials RejectionCode = "InvalidCredentials"
	CodeInternalError      RejectionCode = "InternalError"
)

// Rejection is a terminal response produced by a pipeline stage.
type Rejection struct {
	Code    RejectionCode
	Status  int
	Message string
	// RetryAfter is the number of seconds to wait; only set for CodeRateLimited.
	RetryAfter int
	// ClearSession reports whether the rejection invalidates the session cookies.
	ClearSession bool
	// Err is the underlying cause. It is logged, never sent to the client.
	Err error
}

func (r Rejection) Error() string {
	if r.Err != nil {
		return string(r.Code) + ": " + r.Err.Error()
	}
	return string(r.Code)
}

func (r Rejection) Unwrap() error { return r.Err }

type rejectionCase struct {
	err     error
	code    RejectionCode
	status  int
	message string
	clear   bool
}

// An expired access token has no entry: the gate resolves it into a refresh or a refresh failure.
var rejectionCases = []rejectionCase{
	{ErrMissingToken, CodeMissingToken, http.StatusUnauthorized, "Authentication required", false},
	{ErrInvalidToken, CodeInvalidToken, http.StatusUnauthorized, "Invalid access token", true},
	{ErrRevokedToken, CodeRevokedToken, http.StatusUnauthorized, "Access token has been revoked", true},
	{ErrSessionExpired, CodeSessionExpired, http.StatusUnauthorized, "Session expired, please log in again", true},
	{ErrRefreshInvalid, CodeRefreshInvalid, http.StatusUnauthorized, "Invalid or expired refresh token", true},
	{ErrUserNotFound, CodeUserNotFound, http.StatusUnauthorized, "User not found", true},
	{ErrUserInactive, CodeUserInactive, http.StatusForbidden, "Account is inactive", true},
	{ErrForbidden, CodeForbidden, http.StatusForbidden, "Insufficient permissions", false},
	{ErrUserNotVerified, CodeUserNotVerified, http.StatusForbidden, "Account is not verified", false},
	{ErrRateLimited, CodeRateLimited, http.StatusTooManyRequests, "Too many requests", false},
	{ErrInvalidCredentials, CodeInvalidCredentials, http.StatusUnauthorized, "Invalid email or password", false},
}

// RejectionFor maps err onto the rejection taxonomy. Unknown errors become InternalError
// with a generic message and leave cookies untouched.
func RejectionFor(err error) Rejection {
	var existing Rejection
	if errors.As(err, &existing) {
		return existing
	}

	for _, rc := range rejectionCases {
		if errors.Is(err, rc.err) {
			return Rejection{
				Code:         rc.code,
				Status:       rc.status,
				Message:      rc.message,
				ClearSession: rc.clear,
				Err:          err,
			}
		}
	}

	return Rejection{
		Code:    CodeInternalError,
		Status:  http.StatusInternalServerError,
		Message: "An unexpected error occurred",
		Err:     err,
	}
}

// Outcome is the result of a pipeline stage: either continue with an AuthContext or
// respond with a Rejection.
type Outcome struct {
	auth      domain.AuthContext
	rejection *Rejection
	quota     *Quota
}

// Continue lets the request proceed acting as auth.
func Continue(auth domain.AuthContext) Outcome {
	return Outcome{auth: auth}
}

// Respond stops the pipeline with r.
func Respond(r Rejection) Outcome {
	return Outcome{rejection: &r}
}

// Reject stops the pipeline with the rejection mapped from err.
func Reject(err error) Outcome {
	return Respond(RejectionFor(err))
}

// Continues reports whether the outcome lets the request proceed.
func (o Outcome) Continues() bool { return o.rejection == nil }

// Auth returns the AuthContext carried by a continuing outcome.
func (o Outcome) Auth() domain.AuthContext { return o.auth }

// Rejection returns the rejection carried by a terminal outcome.
func (o Outcome) Rejection() (Rejection, bool) {
	if o.rejection == nil {
		return Rejection{}, false
	}
	return *o.rejection, true
}

// Quota returns rate-limit bookkeeping attached by a RateLimiter stage.
func (o Outcome) Quota() (Quota, bool) {
	if o.quota == nil {
		return Quota{}, false
	}
	return *o.quota, true
}

// WithQuota attaches rate-limit bookkeeping so adapters can emit headers.
func (o Outcome) WithQuota(q Quota) Outcome {
	o.quota = &q
	return o
}

// Stage is one step of the request pipeline.
type Stage func(ctx context.Context, auth domain.AuthContext) Outcome

// Run applies stages in order, threading the AuthContext and stopping at the first
// rejection. The last quota seen is preserved on the result.
func Run(ctx context.Context, auth domain.AuthContext, stages ...Stage) Outcome {
	out := Continue(auth)
	for _, stage := range stages {
		if stage == nil {
			continue
		}
		next := stage(ctx, out.auth)
		if next.quota == nil {
			next.quota = out.quota
		}
		out = next
		if !out.Continues() {
			return out
		}
	}
	return out
}
