package directory

import (
	"context"
	"errors"
	"testing"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

func newTestDirectory() (*Directory, *store.MemoryStore) {
	db := store.NewMemoryStore()
	return New(db, logger.New("test")), db
}

func TestRecordSendWritesBothPointers(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory()

	sender := domain.Identity{UID: "sam", DisplayName: "Sam", PhotoURL: "http://x/sam.png"}
	partner := domain.Profile{UID: "pat", DisplayName: "Pat", Email: "pat@example.com"}

	d.RecordSend(ctx, sender, partner)

	patSide, err := d.List(ctx, "pat")
	if err != nil {
		t.Fatalf("List pat: %v", err)
	}
	if len(patSide) != 1 {
		t.Fatalf("pat has %d pointers, want 1", len(patSide))
	}
	if p := patSide[0]; p.PartnerID != "sam" || !p.HasUnread || p.PartnerDisplayName != "Sam" {
		t.Errorf("recipient pointer = %+v", p)
	}

	samSide, err := d.List(ctx, "sam")
	if err != nil {
		t.Fatalf("List sam: %v", err)
	}
	if len(samSide) != 1 {
		t.Fatalf("sam has %d pointers, want 1", len(samSide))
	}
	if p := samSide[0]; p.PartnerID != "pat" || p.HasUnread || p.PartnerEmail != "pat@example.com" {
		t.Errorf("sender pointer = %+v", p)
	}
}

func TestRepeatedSendsKeepRecipientUnread(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory()

	sender := domain.Identity{UID: "sam", DisplayName: "Sam"}
	partner := domain.Profile{UID: "pat", DisplayName: "Pat"}

	d.RecordSend(ctx, sender, partner)
	if err := d.MarkRead(ctx, "pat", "sam"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	// The next send re-flags the recipient; still one pointer per side.
	d.RecordSend(ctx, sender, partner)

	patSide, _ := d.List(ctx, "pat")
	if len(patSide) != 1 || !patSide[0].HasUnread {
		t.Errorf("pat pointers = %+v, want single unread pointer", patSide)
	}
}

func TestMarkReadMissingPointerIsNoop(t *testing.T) {
	d, _ := newTestDirectory()
	if err := d.MarkRead(context.Background(), "nobody", "noone"); err != nil {
		t.Errorf("MarkRead on missing pointer = %v, want nil", err)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory()

	owner := domain.Identity{UID: "owner", DisplayName: "Owner"}
	for _, partner := range []string{"first", "second", "third"} {
		d.RecordSend(ctx, owner, domain.Profile{UID: partner, DisplayName: partner})
	}

	// Owner's own pointer list: most recently active partner first.
	pointers, err := d.List(ctx, "owner")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pointers) != 3 {
		t.Fatalf("len = %d, want 3", len(pointers))
	}
	want := []string{"third", "second", "first"}
	for i, p := range pointers {
		if p.PartnerID != want[i] {
			t.Errorf("pointers[%d] = %s, want %s", i, p.PartnerID, want[i])
		}
	}
}

func TestDeleteRemovesOnlyOwnersPointer(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory()

	sender := domain.Identity{UID: "sam", DisplayName: "Sam"}
	partner := domain.Profile{UID: "pat", DisplayName: "Pat"}
	d.RecordSend(ctx, sender, partner)

	if err := d.Delete(ctx, "sam", "pat"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	samSide, _ := d.List(ctx, "sam")
	if len(samSide) != 0 {
		t.Errorf("sam still has %d pointers", len(samSide))
	}
	// The partner's side is untouched.
	patSide, _ := d.List(ctx, "pat")
	if len(patSide) != 1 {
		t.Errorf("pat has %d pointers, want 1", len(patSide))
	}

	if err := d.Delete(ctx, "sam", "pat"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}
