package moderation

import (
	"context"
	"errors"
	"testing"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

func newTestService(developerIDs ...string) (*Service, *store.MemoryStore) {
	db := store.NewMemoryStore()
	return NewService(db, logger.New("test"), developerIDs), db
}

func seedUser(t *testing.T, db *store.MemoryStore, uid string, admin bool) {
	t.Helper()
	if err := db.Set(context.Background(), domain.ColUsers, uid, map[string]any{
		"displayName": uid,
		"isAdmin":     admin,
	}); err != nil {
		t.Fatalf("seed %s: %v", uid, err)
	}
}

func TestHasCapability(t *testing.T) {
	s, _ := newTestService("dev1")

	if !s.HasCapability(domain.Profile{UID: "x", IsAdmin: true}) {
		t.Error("admin profile should hold capability")
	}
	if !s.HasCapability(domain.Profile{UID: "dev1"}) {
		t.Error("developer should hold capability without the profile flag")
	}
	if s.HasCapability(domain.Profile{UID: "plain"}) {
		t.Error("plain user should not hold capability")
	}
}

func TestGuardRejections(t *testing.T) {
	ctx := context.Background()
	s, db := newTestService("dev1")
	seedUser(t, db, "target", false)

	admin := domain.Profile{UID: "admin", IsAdmin: true}

	if err := s.ToggleMute(ctx, domain.Profile{UID: "nobody"}, "target"); !errors.Is(err, reclaim_errors.ErrPermissionDenied) {
		t.Errorf("no capability = %v, want ErrPermissionDenied", err)
	}
	if err := s.ToggleMute(ctx, admin, admin.UID); !errors.Is(err, reclaim_errors.ErrInvalidInput) {
		t.Errorf("self target = %v, want ErrInvalidInput", err)
	}
	if err := s.ToggleMute(ctx, admin, "dev1"); !errors.Is(err, reclaim_errors.ErrPermissionDenied) {
		t.Errorf("developer target = %v, want ErrPermissionDenied", err)
	}
}

func TestToggleMuteFlips(t *testing.T) {
	ctx := context.Background()
	s, db := newTestService()
	seedUser(t, db, "target", false)
	admin := domain.Profile{UID: "admin", IsAdmin: true}

	if err := s.ToggleMute(ctx, admin, "target"); err != nil {
		t.Fatalf("mute: %v", err)
	}
	doc, _ := db.Get(ctx, domain.ColUsers, "target")
	if !doc.Bool("isMuted") {
		t.Fatal("target not muted")
	}

	if err := s.ToggleMute(ctx, admin, "target"); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	doc, _ = db.Get(ctx, domain.ColUsers, "target")
	if doc.Bool("isMuted") {
		t.Error("target still muted after second toggle")
	}
}

func TestToggleBanFlipsSharedSet(t *testing.T) {
	ctx := context.Background()
	s, db := newTestService()
	seedUser(t, db, "target", false)
	admin := domain.Profile{UID: "admin", IsAdmin: true}

	if err := s.ToggleBan(ctx, admin, "target"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if !meta.IsBanned("target") {
		t.Fatal("target not in banned set")
	}

	if err := s.ToggleBan(ctx, admin, "target"); err != nil {
		t.Fatalf("unban: %v", err)
	}
	meta, _ = s.Meta(ctx)
	if meta.IsBanned("target") {
		t.Fatal("target still banned after second toggle")
	}
	// Unbanning the last user removes the set field from the document.
	doc, err := db.Get(ctx, domain.ColAppConfig, domain.PublicChatMetaID)
	if err != nil {
		t.Fatalf("Get meta doc: %v", err)
	}
	if _, ok := doc.Sets["bannedUserIds"]; ok {
		t.Error("empty banned set retained on document")
	}
}

func TestTogglePinReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()
	admin := domain.Profile{UID: "admin", IsAdmin: true}

	msgA := domain.Message{ID: "a", Text: "first", AuthorID: "u1", AuthorDisplayName: "U1"}
	msgB := domain.Message{ID: "b", Text: "second", AuthorID: "u2", AuthorDisplayName: "U2"}

	if err := s.TogglePin(ctx, admin, msgA); err != nil {
		t.Fatalf("pin a: %v", err)
	}
	meta, _ := s.Meta(ctx)
	if meta.Pinned == nil || meta.Pinned.ID != "a" {
		t.Fatalf("pinned = %+v, want a", meta.Pinned)
	}

	// Pinning another message replaces the snapshot: at most one pin.
	if err := s.TogglePin(ctx, admin, msgB); err != nil {
		t.Fatalf("pin b: %v", err)
	}
	meta, _ = s.Meta(ctx)
	if meta.Pinned == nil || meta.Pinned.ID != "b" || meta.Pinned.Text != "second" {
		t.Fatalf("pinned = %+v, want b", meta.Pinned)
	}

	// Pinning the currently pinned message unpins it.
	if err := s.TogglePin(ctx, admin, msgB); err != nil {
		t.Fatalf("unpin b: %v", err)
	}
	meta, _ = s.Meta(ctx)
	if meta.Pinned != nil {
		t.Fatalf("pinned = %+v, want nil", meta.Pinned)
	}

	if err := s.TogglePin(ctx, domain.Profile{UID: "pleb"}, msgA); !errors.Is(err, reclaim_errors.ErrPermissionDenied) {
		t.Errorf("pin without capability = %v, want ErrPermissionDenied", err)
	}
}

func TestToggleAdminRoleDevelopersOnly(t *testing.T) {
	ctx := context.Background()
	s, db := newTestService("dev1")
	seedUser(t, db, "target", false)
	seedUser(t, db, "dev1", false)

	// An ordinary admin cannot grant or revoke the role.
	admin := domain.Profile{UID: "admin", IsAdmin: true}
	if err := s.ToggleAdminRole(ctx, admin, "target"); !errors.Is(err, reclaim_errors.ErrPermissionDenied) {
		t.Errorf("non-developer promote = %v, want ErrPermissionDenied", err)
	}

	dev := domain.Profile{UID: "dev1"}
	if err := s.ToggleAdminRole(ctx, dev, "target"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	doc, _ := db.Get(ctx, domain.ColUsers, "target")
	if !doc.Bool("isAdmin") {
		t.Fatal("target not promoted")
	}

	if err := s.ToggleAdminRole(ctx, dev, "target"); err != nil {
		t.Fatalf("demote: %v", err)
	}
	doc, _ = db.Get(ctx, domain.ColUsers, "target")
	if doc.Bool("isAdmin") {
		t.Error("target still admin after second toggle")
	}
}

func TestMetaMissingDocumentIsEmpty(t *testing.T) {
	s, _ := newTestService()
	meta, err := s.Meta(context.Background())
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if meta.Pinned != nil || len(meta.BannedUserIDs) != 0 {
		t.Errorf("meta = %+v, want empty", meta)
	}
}
