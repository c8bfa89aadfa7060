package usecase

import "errors"

var (
	// ErrMissingToken indicates the request carried no access token.
	ErrMissingToken = errors.New("access token missing")
	// ErrInvalidToken indicates the access token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrRevokedToken indicates the access token was revoked before its natural expiry.
	ErrRevokedToken = errors.New("access token revoked")
	// ErrRefreshInvalid indicates the refresh token is malformed, forged or expired.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrSessionExpired indicates the access token expired and no refresh token was presented.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates the token's principal no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive indicates the principal exists but is deactivated.
	ErrUserInactive = errors.New("user inactive")
	// ErrForbidden indicates the principal's role does not permit the action.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotVerified indicates the principal has not completed verification.
	ErrUserNotVerified = errors.New("user not verified")
	// ErrRateLimited indicates the principal exhausted the route's request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidCredentials indicates the email or password supplied at login is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
