package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationRepository_AddAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client)
	ctx := context.Background()

	if err := repo.AddMember(ctx, "blacklist1", "hash-a"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if err := repo.AddMember(ctx, "blacklist1", "hash-a"); err != nil {
		t.Fatalf("second AddMember returned error: %v", err)
	}

	members, err := server.Members("blacklist1")
	if err != nil {
		t.Fatalf("Members returned error: %v", err)
	}
	if len(members) != 1 || members[0] != "hash-a" {
		t.Fatalf("expected a single member, got %v", members)
	}

	found, err := repo.IsMember(ctx, "blacklist1", "hash-a")
	if err != nil || !found {
		t.Fatalf("expected hash-a to be a member, found=%v err=%v", found, err)
	}

	found, err = repo.IsMember(ctx, "blacklist1", "hash-b")
	if err != nil || found {
		t.Fatalf("expected hash-b to be absent, found=%v err=%v", found, err)
	}

	found, err = repo.IsMember(ctx, "blacklist2", "hash-a")
	if err != nil || found {
		t.Fatalf("expected missing bucket to report no membership, found=%v err=%v", found, err)
	}
}

func TestRevocationRepository_RemainingExpiryStates(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client)
	ctx := context.Background()

	expiry, err := repo.RemainingExpiry(ctx, "blacklist3")
	if err != nil {
		t.Fatalf("RemainingExpiry returned error: %v", err)
	}
	if expiry.Kind != domain.ExpiryAbsent {
		t.Fatalf("expected absent, got %s", expiry.Kind)
	}

	if err := repo.AddMember(ctx, "blacklist3", "hash-a"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	expiry, err = repo.RemainingExpiry(ctx, "blacklist3")
	if err != nil {
		t.Fatalf("RemainingExpiry returned error: %v", err)
	}
	if expiry.Kind != domain.ExpiryNotArmed {
		t.Fatalf("expected not armed, got %s", expiry.Kind)
	}

	armed, err := repo.ArmExpiry(ctx, "blacklist3", 7*24*time.Hour)
	if err != nil || !armed {
		t.Fatalf("expected expiry to be armed, armed=%v err=%v", armed, err)
	}
	expiry, err = repo.RemainingExpiry(ctx, "blacklist3")
	if err != nil {
		t.Fatalf("RemainingExpiry returned error: %v", err)
	}
	if expiry.Kind != domain.ExpiryArmed {
		t.Fatalf("expected armed, got %s", expiry.Kind)
	}
	if expiry.Remaining != 7*24*time.Hour {
		t.Fatalf("expected seven days remaining, got %s", expiry.Remaining)
	}
}

func TestRevocationRepository_ArmExpiryUsesMilliseconds(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client)
	ctx := context.Background()

	if err := repo.AddMember(ctx, "blacklist4", "hash-a"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if _, err := repo.ArmExpiry(ctx, "blacklist4", 7*24*time.Hour); err != nil {
		t.Fatalf("ArmExpiry returned error: %v", err)
	}

	// A seconds value sent as milliseconds would expire after about ten minutes.
	server.FastForward(11 * time.Minute)
	if !server.Exists("blacklist4") {
		t.Fatalf("bucket expired after eleven minutes; retention unit is wrong")
	}

	server.FastForward(7 * 24 * time.Hour)
	if server.Exists("blacklist4") {
		t.Fatalf("expected bucket to vanish after seven days")
	}
}

func TestRevocationRepository_ArmExpiryMissingKey(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client)

	armed, err := repo.ArmExpiry(context.Background(), "blacklist5", time.Hour)
	if err != nil {
		t.Fatalf("ArmExpiry returned error: %v", err)
	}
	if armed {
		t.Fatalf("expected PEXPIRE on a missing key to report false")
	}
}

func TestRevocationRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client)
	ctx := context.Background()

	if err := repo.AddMember(ctx, "", "hash"); err == nil {
		t.Fatalf("expected error for empty bucket key")
	}
	if err := repo.AddMember(ctx, "blacklist0", ""); err == nil {
		t.Fatalf("expected error for empty hash")
	}
	if _, err := repo.IsMember(ctx, " ", "hash"); err == nil {
		t.Fatalf("expected error for blank bucket key")
	}
	if _, err := repo.ArmExpiry(ctx, "blacklist0", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, err := repo.RemainingExpiry(ctx, ""); err == nil {
		t.Fatalf("expected error for empty bucket key")
	}
}

func TestRevocationRepository_StoreDown(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client)
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := repo.IsMember(ctx, "blacklist0", "hash"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
