package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

func TestRejectionForMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		code   RejectionCode
		status int
		clear  bool
	}{
		{ErrMissingToken, CodeMissingToken, http.StatusUnauthorized, false},
		{ErrInvalidToken, CodeInvalidToken, http.StatusUnauthorized, true},
		{ErrRevokedToken, CodeRevokedToken, http.StatusUnauthorized, true},
		{ErrSessionExpired, CodeSessionExpired, http.StatusUnauthorized, true},
		{ErrRefreshInvalid, CodeRefreshInvalid, http.StatusUnauthorized, true},
		{ErrUserNotFound, CodeUserNotFound, http.StatusUnauthorized, true},
		{ErrUserInactive, CodeUserInactive, http.StatusForbidden, true},
		{ErrForbidden, CodeForbidden, http.StatusForbidden, false},
		{ErrUserNotVerified, CodeUserNotVerified, http.StatusForbidden, false},
		{ErrRateLimited, CodeRateLimited, http.StatusTooManyRequests, false},
		{ErrInvalidCredentials, CodeInvalidCredentials, http.StatusUnauthorized, false},
		{errors.New("boom"), CodeInternalError, http.StatusInternalServerError, false},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("context: %w", tc.err)
		rejection := RejectionFor(wrapped)
		if rejection.Code != tc.code || rejection.Status != tc.status || rejection.ClearSession != tc.clear {
			t.Fatalf("%v: got %+v", tc.err, rejection)
		}
		if !errors.Is(rejection, tc.err) {
			t.Fatalf("%v: rejection must unwrap to its cause", tc.err)
		}
	}
}

func TestRejectionForInternalErrorHidesCause(t *testing.T) {
	rejection := RejectionFor(errors.New("pq: password authentication failed"))
	if rejection.Message != "An unexpected error occurred" {
		t.Fatalf("unexpected message %q", rejection.Message)
	}
}

func TestRunStopsAtFirstRejection(t *testing.T) {
	var calls []string
	stage := func(name string, out func(domain.AuthContext) Outcome) Stage {
		return func(_ context.Context, auth domain.AuthContext) Outcome {
			calls = append(calls, name)
			return out(auth)
		}
	}

	authenticated := domain.Authenticated(landlord(), "raw")
	out := Run(context.Background(), domain.Anonymous(),
		stage("attach", func(domain.AuthContext) Outcome { return Continue(authenticated) }),
		stage("observe", func(auth domain.AuthContext) Outcome {
			if !auth.IsAuthenticated() {
				t.Fatalf("expected auth context to be threaded")
			}
			return Continue(auth).WithQuota(Quota{Allowed: true, Limit: 5, Remaining: 4})
		}),
		nil,
		stage("reject", func(domain.AuthContext) Outcome { return Reject(ErrForbidden) }),
		stage("unreachable", func(auth domain.AuthContext) Outcome { return Continue(auth) }),
	)

	if len(calls) != 3 || calls[2] != "reject" {
		t.Fatalf("unexpected stage calls %v", calls)
	}
	if out.Continues() {
		t.Fatalf("expected rejection")
	}
	if quota, ok := out.Quota(); !ok || quota.Remaining != 4 {
		t.Fatalf("expected quota from earlier stage to be preserved, got %+v", quota)
	}
}

func TestRunWithoutStagesContinues(t *testing.T) {
	out := Run(context.Background(), domain.Anonymous())
	if !out.Continues() || out.Auth().IsAuthenticated() {
		t.Fatalf("expected anonymous continue")
	}
}
