package security

import (
	"context"
	"testing"
	"time"
)

func TestRevocationListRevokeAndExpire(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	list := NewRevocationList(RevocationListOptions{TTL: time.Minute}).
		WithClock(func() time.Time { return now })

	if err := list.Revoke(ctx, "token-a"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	revoked, err := list.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be revoked")
	}

	revoked, _ = list.IsRevoked(ctx, "token-b")
	if revoked {
		t.Fatal("expected unrelated token to be accepted")
	}

	now = base.Add(time.Minute - time.Millisecond)
	if revoked, _ = list.IsRevoked(ctx, "token-a"); !revoked {
		t.Fatal("expected token revoked until ttl elapses")
	}

	now = base.Add(time.Minute)
	if revoked, _ = list.IsRevoked(ctx, "token-a"); revoked {
		t.Fatal("expected entry to age out at ttl")
	}
}

func TestRevocationListPruneRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	list := NewRevocationList(RevocationListOptions{TTL: time.Minute}).
		WithClock(func() time.Time { return now })

	_ = list.Revoke(ctx, "first")
	now = base.Add(30 * time.Second)
	_ = list.Revoke(ctx, "second")

	if removed := list.Prune(base.Add(time.Minute)); removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	if list.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", list.Len())
	}
	if removed := list.Prune(base.Add(2 * time.Minute)); removed != 1 {
		t.Fatalf("expected second entry pruned, got %d", removed)
	}
	if list.Len() != 0 {
		t.Fatalf("expected empty list, got %d", list.Len())
	}
}

func TestRevocationListRevokeAgainRestartsTTL(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	list := NewRevocationList(RevocationListOptions{TTL: time.Minute}).
		WithClock(func() time.Time { return now })

	_ = list.Revoke(ctx, "token")
	now = base.Add(45 * time.Second)
	_ = list.Revoke(ctx, "token")

	if list.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", list.Len())
	}

	now = base.Add(90 * time.Second)
	if revoked, _ := list.IsRevoked(ctx, "token"); !revoked {
		t.Fatal("expected restarted ttl to keep token revoked")
	}
}

func TestRevocationListRevokeSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	list := NewRevocationList(RevocationListOptions{TTL: time.Minute}).
		WithClock(func() time.Time { return now })

	for _, token := range []string{"a", "b", "c"} {
		_ = list.Revoke(ctx, token)
	}

	now = base.Add(2 * time.Minute)
	_ = list.Revoke(ctx, "d")

	if list.Len() != 1 {
		t.Fatalf("expected expired entries swept on revoke, got %d", list.Len())
	}
}

func TestRevocationListRejectsEmptyToken(t *testing.T) {
	list := NewRevocationList(RevocationListOptions{})
	if err := list.Revoke(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty token")
	}
	if revoked, err := list.IsRevoked(context.Background(), ""); err != nil || revoked {
		t.Fatalf("expected empty token to be reported as not revoked, got %v %v", revoked, err)
	}
}

func TestRevocationListRunStopsOnCancel(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	list := NewRevocationList(RevocationListOptions{TTL: time.Minute, SweepInterval: time.Millisecond}).
		WithClock(func() time.Time { return now })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		list.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
