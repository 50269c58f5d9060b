package messages

import (
	"context"
	"fmt"
	"testing"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
)

func TestHydratorBatchesAboveInListLimit(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	h := NewHydrator(db)

	// More distinct authors than one in-list read can return.
	n := store.MaxInListSize + 5
	msgs := make([]domain.Message, n)
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("user%d", i)
		if err := db.Set(ctx, domain.ColUsers, uid, map[string]any{
			"displayName": fmt.Sprintf("User %d", i),
		}); err != nil {
			t.Fatalf("seed %s: %v", uid, err)
		}
		msgs[i] = domain.Message{ID: fmt.Sprintf("m%d", i), AuthorID: uid}
	}

	profiles, err := h.Profiles(ctx, msgs)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if len(profiles) != n {
		t.Fatalf("len = %d, want %d", len(profiles), n)
	}
	if profiles["user0"].DisplayName != "User 0" {
		t.Errorf("user0 = %+v", profiles["user0"])
	}
}

func TestHydratorMissingAuthorResolvesToZeroProfile(t *testing.T) {
	ctx := context.Background()
	h := NewHydrator(store.NewMemoryStore())

	profiles, err := h.Profiles(ctx, []domain.Message{{ID: "m", AuthorID: "ghost"}})
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	p, ok := profiles["ghost"]
	if !ok {
		t.Fatal("missing author absent from result")
	}
	if p.UID != "ghost" || p.DisplayName != "" {
		t.Errorf("ghost profile = %+v, want zero profile under uid", p)
	}
}

func TestHydratorCacheIsNeverInvalidated(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	h := NewHydrator(db)

	if err := db.Set(ctx, domain.ColUsers, "u1", map[string]any{"displayName": "Old Name"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	msgs := []domain.Message{{ID: "m", AuthorID: "u1"}}

	first, err := h.Profiles(ctx, msgs)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if first["u1"].DisplayName != "Old Name" {
		t.Fatalf("first read = %+v", first["u1"])
	}

	// A profile rename is invisible to subsequent hydrations; the cache holds
	// the first-seen snapshot for the process lifetime.
	if err := db.Set(ctx, domain.ColUsers, "u1", map[string]any{"displayName": "New Name"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	second, err := h.Profiles(ctx, msgs)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	if second["u1"].DisplayName != "Old Name" {
		t.Errorf("second read = %q, want cached Old Name", second["u1"].DisplayName)
	}

	if _, ok := h.Cached("u1"); !ok {
		t.Error("u1 not in cache")
	}
}
