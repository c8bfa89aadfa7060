package domain

import "time"

// Session event types published on the audit topic.
const (
	EventSessionStarted   = "rentspot.auth.session.started"
	EventSessionRefreshed = "rentspot.auth.session.refreshed"
	EventSessionRevoked   = "rentspot.auth.session.revoked"
)

// MetadataTokenDigest carries the SHA-256 digest of the revoked access token on
// session.revoked events. The raw token never leaves the process.
const MetadataTokenDigest = "token_digest"

// SessionEvent represents the payload for rentspot.auth.session.* messages.
type SessionEvent struct {
	EventID     string
	Type        string
	PrincipalID string
	Role        Role
	OccurredAt  time.Time
	Reason      string
	Metadata    map[string]any
}
