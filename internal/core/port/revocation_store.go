package port

import "context"

// RevocationStore tracks access tokens that must be rejected even though they are
// cryptographically valid. Entries expire on their own once the access-token TTL elapses.
type RevocationStore interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
