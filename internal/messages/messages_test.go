package messages

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

func newTestStore() (*Store, *store.MemoryStore) {
	db := store.NewMemoryStore()
	return NewStore(db, logger.New("test")), db
}

var alice = domain.Identity{UID: "alice", DisplayName: "Alice"}
var bob = domain.Identity{UID: "bob", DisplayName: "Bob"}

func TestSendAndListAscending(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		id, err := s.Send(ctx, "room", Outgoing{Text: text, Author: alice})
		if err != nil {
			t.Fatalf("Send %q: %v", text, err)
		}
		ids = append(ids, id)
	}

	msgs, err := s.List(ctx, "room")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != ids[i] {
			t.Errorf("msgs[%d].ID = %s, want %s (oldest first)", i, m.ID, ids[i])
		}
	}
	if !msgs[0].CreatedAt.Before(msgs[2].CreatedAt) {
		t.Error("createdAt not ascending")
	}
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	if _, err := s.Send(ctx, "room", Outgoing{Text: "   ", Author: alice}); !errors.Is(err, reclaim_errors.ErrInvalidInput) {
		t.Errorf("blank text = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Send(ctx, "room", Outgoing{Text: "hi"}); !errors.Is(err, reclaim_errors.ErrInvalidInput) {
		t.Errorf("missing author = %v, want ErrInvalidInput", err)
	}
}

func TestHistoryWindowKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	total := HistoryLimit + 5
	var lastID string
	for i := 0; i < total; i++ {
		id, err := s.Send(ctx, "room", Outgoing{Text: fmt.Sprintf("msg %d", i), Author: alice})
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		lastID = id
	}

	msgs, err := s.List(ctx, "room")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != HistoryLimit {
		t.Fatalf("len = %d, want %d", len(msgs), HistoryLimit)
	}
	if msgs[0].Text != "msg 5" {
		t.Errorf("oldest retained = %q, want %q", msgs[0].Text, "msg 5")
	}
	if msgs[len(msgs)-1].ID != lastID {
		t.Error("newest message missing from window")
	}
}

func TestToggleReactionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore()

	id, err := s.Send(ctx, "room", Outgoing{Text: "hi", Author: alice})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := s.ToggleReaction(ctx, "room", id, "👍", bob.UID); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	msg, _ := s.Get(ctx, "room", id)
	if !msg.HasReacted("👍", bob.UID) {
		t.Fatal("reaction not recorded")
	}

	// Second toggler on the same emoji joins the set.
	if err := s.ToggleReaction(ctx, "room", id, "👍", alice.UID); err != nil {
		t.Fatalf("second reactor: %v", err)
	}
	msg, _ = s.Get(ctx, "room", id)
	if len(msg.Reactions["👍"]) != 2 {
		t.Fatalf("reactors = %v, want both", msg.Reactions["👍"])
	}

	// Toggling again removes only that user.
	if err := s.ToggleReaction(ctx, "room", id, "👍", bob.UID); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	msg, _ = s.Get(ctx, "room", id)
	if msg.HasReacted("👍", bob.UID) || !msg.HasReacted("👍", alice.UID) {
		t.Errorf("reactors = %v, want alice only", msg.Reactions["👍"])
	}

	// Last reactor leaving removes the whole set field from the document.
	if err := s.ToggleReaction(ctx, "room", id, "👍", alice.UID); err != nil {
		t.Fatalf("final toggle off: %v", err)
	}
	doc, err := db.Get(ctx, "room", id)
	if err != nil {
		t.Fatalf("Get doc: %v", err)
	}
	if _, ok := doc.Sets[domain.ReactionField("👍")]; ok {
		t.Error("empty reaction set retained on document")
	}
}

func TestEditPreservesEverythingButText(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	id, err := s.Send(ctx, "room", Outgoing{Text: "original", Author: alice})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.ToggleReaction(ctx, "room", id, "🔥", bob.UID); err != nil {
		t.Fatalf("react: %v", err)
	}
	before, _ := s.Get(ctx, "room", id)

	if err := s.Edit(ctx, "room", id, "edited"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	after, _ := s.Get(ctx, "room", id)

	if after.Text != "edited" {
		t.Errorf("text = %q, want edited", after.Text)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("edit changed createdAt")
	}
	if !after.HasReacted("🔥", bob.UID) {
		t.Error("edit dropped reactions")
	}

	if err := s.Edit(ctx, "room", "missing", "x"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("edit missing = %v, want ErrNotFound", err)
	}
	if err := s.Edit(ctx, "room", id, "  "); !errors.Is(err, reclaim_errors.ErrInvalidInput) {
		t.Errorf("edit blank = %v, want ErrInvalidInput", err)
	}
}

func TestEditDeletedMessageIsNotResurrected(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore()

	id, err := s.Send(ctx, "room", Outgoing{Text: "soon gone", Author: alice})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Delete(ctx, "room", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := s.Edit(ctx, "room", id, "necromancy"); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Fatalf("Edit deleted = %v, want ErrNotFound", err)
	}

	// The failed edit must not leave a text-only stub without createdAt.
	if _, err := db.Get(ctx, "room", id); !errors.Is(err, reclaim_errors.ErrNotFound) {
		t.Errorf("deleted message came back: %v", err)
	}
	msgs, err := s.List(ctx, "room")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("len = %d, want empty history", len(msgs))
	}
}

func TestReplySnapshotIsFrozen(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	origID, err := s.Send(ctx, "room", Outgoing{Text: "original words", Author: alice})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	orig, _ := s.Get(ctx, "room", origID)

	replyID, err := s.Send(ctx, "room", Outgoing{
		Text:   "replying",
		Author: bob,
		ReplyTo: &domain.ReplyRef{
			MessageID:         orig.ID,
			Text:              orig.Text,
			AuthorDisplayName: orig.AuthorDisplayName,
		},
	})
	if err != nil {
		t.Fatalf("Send reply: %v", err)
	}

	// Editing the original leaves the snapshot untouched.
	if err := s.Edit(ctx, "room", origID, "changed"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	reply, _ := s.Get(ctx, "room", replyID)
	if reply.ReplyTo == nil || reply.ReplyTo.Text != "original words" {
		t.Fatalf("reply snapshot = %+v, want frozen original text", reply.ReplyTo)
	}

	// Deleting the original leaves the snapshot dangling, not cleared.
	if err := s.Delete(ctx, "room", origID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	reply, _ = s.Get(ctx, "room", replyID)
	if reply.ReplyTo == nil || reply.ReplyTo.MessageID != origID {
		t.Errorf("reply snapshot lost after source deletion: %+v", reply.ReplyTo)
	}
}

func TestSubscribeStreamsAscendingSnapshots(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	s, _ := newTestStore()

	ch, cancel, err := s.Subscribe(ctx, "room")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if _, err := s.Send(ctx, "room", Outgoing{Text: "first", Author: alice}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := s.Send(ctx, "room", Outgoing{Text: "second", Author: bob}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for snap := range ch {
		if len(snap) < 2 {
			continue
		}
		if snap[0].Text != "first" || snap[1].Text != "second" {
			t.Errorf("snapshot order = [%q, %q], want oldest first", snap[0].Text, snap[1].Text)
		}
		return
	}
	t.Fatal("stream closed before delivering both messages")
}
