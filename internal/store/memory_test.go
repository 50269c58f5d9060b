package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	reclaim_errors "reclaim-chat/pkg/errors"
)

func TestApplyCreatesAndGetReads(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Apply(ctx, "things", "t1",
		Set("name", "first"),
		ServerTime("createdAt"),
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	doc, err := s.Get(ctx, "things", "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.String("name") != "first" {
		t.Errorf("name = %q, want %q", doc.String("name"), "first")
	}
	if doc.Time("createdAt").IsZero() {
		t.Error("createdAt was not assigned")
	}

	if _, err := s.Get(ctx, "things", "missing"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestServerTimeMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var prev time.Time
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("d%d", i)
		if err := s.Apply(ctx, "events", id, ServerTime("at")); err != nil {
			t.Fatalf("Apply %s: %v", id, err)
		}
		doc, err := s.Get(ctx, "events", id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		at := doc.Time("at")
		if !at.After(prev) {
			t.Fatalf("timestamp %d (%v) not after previous (%v)", i, at, prev)
		}
		prev = at
	}
}

func TestSetFieldOperations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Adding the same member twice keeps one copy.
	if err := s.Apply(ctx, "c", "d", AddToSet("members", "u1"), AddToSet("members", "u1")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	doc, _ := s.Get(ctx, "c", "d")
	if got := doc.Sets["members"]; len(got) != 1 || got[0] != "u1" {
		t.Fatalf("members = %v, want [u1]", got)
	}

	if err := s.Apply(ctx, "c", "d", AddToSet("members", "u2")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	doc, _ = s.Get(ctx, "c", "d")
	if got := doc.Sets["members"]; len(got) != 2 {
		t.Fatalf("members = %v, want two members", got)
	}

	// Removing the last member removes the field itself.
	if err := s.Apply(ctx, "c", "d", RemoveFromSet("members", "u1"), RemoveFromSet("members", "u2")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	doc, _ = s.Get(ctx, "c", "d")
	if _, ok := doc.Sets["members"]; ok {
		t.Errorf("members field retained after last removal: %v", doc.Sets)
	}
}

func TestDeleteMissingDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Delete(ctx, "c", "nope"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}

	if err := s.Apply(ctx, "c", "d", Set("x", 1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Delete(ctx, "c", "d"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "c", "d"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestUpdateNeverCreatesDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Update(ctx, "c", "ghost", Set("x", 1)); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Fatalf("Update on missing doc = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "c", "ghost"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("failed Update left a document behind: %v", err)
	}

	if err := s.Apply(ctx, "c", "d", Set("x", 1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Update(ctx, "c", "d", Set("x", 2)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err := s.Get(ctx, "c", "d")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Data["x"] != 2 {
		t.Errorf("x = %v, want 2", doc.Data["x"])
	}

	// Deleting and then updating must not resurrect the document.
	if err := s.Delete(ctx, "c", "d"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Update(ctx, "c", "d", Set("x", 3)); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Fatalf("Update after Delete = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "c", "d"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("deleted document came back: %v", err)
	}
}

func TestSetReplacesScalarsButKeepsSetFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Apply(ctx, "c", "d",
		Set("name", "before"),
		Set("extra", "stale"),
		AddToSet("members", "m1"),
	); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Set(ctx, "c", "d", map[string]any{"name": "after"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	doc, err := s.Get(ctx, "c", "d")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.String("name") != "after" {
		t.Errorf("name = %q, want %q", doc.String("name"), "after")
	}
	if _, ok := doc.Data["extra"]; ok {
		t.Error("Set kept a scalar field it should have replaced away")
	}
	// Set fields live beside the scalar document and survive a replace.
	if got := doc.Sets["members"]; len(got) != 1 || got[0] != "m1" {
		t.Errorf("members = %v, want [m1]", got)
	}
}

func TestListOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		if err := s.Apply(ctx, "msgs", id, ServerTime("createdAt")); err != nil {
			t.Fatalf("Apply %s: %v", id, err)
		}
	}

	docs, err := s.List(ctx, "msgs", Query{OrderBy: "createdAt", Desc: true, Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
	want := []string{"m4", "m3", "m2"}
	for i, d := range docs {
		if d.ID != want[i] {
			t.Errorf("docs[%d].ID = %s, want %s", i, d.ID, want[i])
		}
	}

	asc, err := s.List(ctx, "msgs", Query{OrderBy: "createdAt"})
	if err != nil {
		t.Fatalf("List asc: %v", err)
	}
	if len(asc) != 5 || asc[0].ID != "m0" {
		t.Errorf("ascending list = %v", asc)
	}
}

func TestGetAllSkipsMissingAndEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Apply(ctx, "users", "a", Set("n", 1))
	_ = s.Apply(ctx, "users", "b", Set("n", 2))

	docs, err := s.GetAll(ctx, "users", []string{"a", "ghost", "b"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("len = %d, want 2 (missing ids skipped)", len(docs))
	}

	big := make([]string, MaxInListSize+1)
	for i := range big {
		big[i] = fmt.Sprintf("id%d", i)
	}
	if _, err := s.GetAll(ctx, "users", big); !errors.Is(err, reclaim_errors.ErrInvalidInput) {
		t.Errorf("GetAll oversized = %v, want ErrInvalidInput", err)
	}
}

// waitFor receives snapshots until ok returns true or the test times out.
func waitFor[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			if !open {
				t.Fatal("channel closed before condition met")
			}
			if ok(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestSubscribeDeliversFullSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ch, cancel, err := s.Subscribe(ctx, "msgs", Query{OrderBy: "createdAt"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	waitFor(t, ch, func(docs []Doc) bool { return len(docs) == 0 })

	if err := s.Apply(ctx, "msgs", "m1", Set("text", "hello"), ServerTime("createdAt")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap := waitFor(t, ch, func(docs []Doc) bool { return len(docs) == 1 })
	if snap[0].String("text") != "hello" {
		t.Errorf("text = %q, want hello", snap[0].String("text"))
	}

	if err := s.Delete(ctx, "msgs", "m1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	waitFor(t, ch, func(docs []Doc) bool { return len(docs) == 0 })
}

func TestWatchSingleDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ch, cancel, err := s.Watch(ctx, "app_config", "meta")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	first := waitFor(t, ch, func(Doc) bool { return true })
	if first.Exists {
		t.Error("missing document delivered with Exists=true")
	}

	if err := s.Apply(ctx, "app_config", "meta", Set("v", "x")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	waitFor(t, ch, func(d Doc) bool { return d.Exists && d.String("v") == "x" })

	// Changes to other documents in the collection do not wake this watch
	// with that document's state.
	if err := s.Apply(ctx, "app_config", "other", Set("v", "y")); err != nil {
		t.Fatalf("Apply other: %v", err)
	}
	if err := s.Apply(ctx, "app_config", "meta", Set("v", "z")); err != nil {
		t.Fatalf("Apply meta: %v", err)
	}
	d := waitFor(t, ch, func(d Doc) bool { return d.String("v") == "z" })
	if d.ID != "meta" {
		t.Errorf("watched doc id = %s, want meta", d.ID)
	}
}
