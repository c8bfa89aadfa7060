package port

import (
	"context"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

// PrincipalRepository resolves principals from the users store.
// Implementations return repository.ErrNotFound for unknown ids or emails.
type PrincipalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetCredentials(ctx context.Context, email string) (*domain.PrincipalCredentials, error)
}
