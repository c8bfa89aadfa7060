package usecase

import (
	"context"
	"fmt"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

// RequireRole admits principals with exactly role. Tenants and landlords must also have
// their profile linked; a role without one is a misconfigured account.
func RequireRole(role domain.Role) Stage {
	return RequireAnyRole(role)
}

// RequireAnyRole admits principals whose role is one of roles. An empty set admits nobody.
func RequireAnyRole(roles ...domain.Role) Stage {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(_ context.Context, auth domain.AuthContext) Outcome {
		principal, ok := auth.Principal()
		if !ok {
			return Reject(fmt.Errorf("%w: no principal", ErrForbidden))
		}
		if _, ok := allowed[principal.Role]; !ok {
			return Reject(fmt.Errorf("%w: role %q not permitted", ErrForbidden, principal.Role))
		}
		if !principal.HasLinkedProfile() {
			return Reject(fmt.Errorf("%w: %s %s has no linked profile", ErrForbidden, principal.Role, principal.ID))
		}
		return Continue(auth)
	}
}

// RequireVerified admits verified principals only.
func RequireVerified() Stage {
	return func(_ context.Context, auth domain.AuthContext) Outcome {
		principal, ok := auth.Principal()
		if !ok {
			return Reject(fmt.Errorf("%w: no principal", ErrForbidden))
		}
		if !principal.IsVerified {
			return Reject(ErrUserNotVerified)
		}
		return Continue(auth)
	}
}
