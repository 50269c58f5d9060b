package directory

import (
	"context"
	"errors"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// Directory maintains the per-user conversation pointer documents for
// private chat: users/{owner}/conversations/{partnerId}. Each active private
// conversation has one pointer per participant, and only the recipient's
// copy is ever flagged unread.
type Directory struct {
	db  store.Store
	log *logger.Logger
}

func New(db store.Store, log *logger.Logger) *Directory {
	return &Directory{db: db, log: log}
}

// RecordSend refreshes both participants' pointers after a private send: the
// recipient's copy gets hasUnread=true, the sender's own copy never does.
// The two writes are independent, not a transaction; a failure in between
// leaves the pair inconsistent until the next send. Best-effort delivery:
// failures are logged, never surfaced, and there are no retries.
func (d *Directory) RecordSend(ctx context.Context, sender domain.Identity, partner domain.Profile) {
	// Recipient's pointer: points back at the sender, flagged unread.
	err := d.db.Apply(ctx, domain.UserConversationsCol(partner.UID), sender.UID,
		store.Set("partnerDisplayName", sender.DisplayName),
		store.Set("partnerPhotoURL", sender.PhotoURL),
		store.Set("hasUnread", true),
		store.ServerTime("lastMessageAt"),
	)
	if err != nil {
		d.log.Errorf("directory: unread flag for %s<-%s: %v", partner.UID, sender.UID, err)
	}

	// Sender's own pointer: refreshed, but never self-marked unread.
	err = d.db.Apply(ctx, domain.UserConversationsCol(sender.UID), partner.UID,
		store.Set("partnerDisplayName", partner.DisplayName),
		store.Set("partnerPhotoURL", partner.PhotoURL),
		store.Set("partnerEmail", partner.Email),
		store.Set("hasUnread", false),
		store.ServerTime("lastMessageAt"),
	)
	if err != nil {
		d.log.Errorf("directory: pointer refresh for %s->%s: %v", sender.UID, partner.UID, err)
	}
}

// MarkRead clears the owner's unread flag for a partner. Called when the
// owner opens the thread. A missing pointer is a no-op.
func (d *Directory) MarkRead(ctx context.Context, ownerUID, partnerUID string) error {
	col := domain.UserConversationsCol(ownerUID)
	if _, err := d.db.Get(ctx, col, partnerUID); err != nil {
		if errors.Is(err, reclaim_errors.ErrNotFound) {
			return nil
		}
		return err
	}
	return d.db.Apply(ctx, col, partnerUID, store.Set("hasUnread", false))
}

// List returns the owner's conversation pointers, most recent first.
func (d *Directory) List(ctx context.Context, ownerUID string) ([]domain.ConversationPointer, error) {
	docs, err := d.db.List(ctx, domain.UserConversationsCol(ownerUID),
		store.Query{OrderBy: "lastMessageAt", Desc: true})
	if err != nil {
		return nil, err
	}
	return decodePointers(docs), nil
}

// Subscribe streams the owner's conversation list on every change.
func (d *Directory) Subscribe(ctx context.Context, ownerUID string) (<-chan []domain.ConversationPointer, func(), error) {
	docs, cancel, err := d.db.Subscribe(ctx, domain.UserConversationsCol(ownerUID),
		store.Query{OrderBy: "lastMessageAt", Desc: true})
	if err != nil {
		return nil, nil, err
	}
	out := make(chan []domain.ConversationPointer, 1)
	go func() {
		defer close(out)
		for snap := range docs {
			out <- decodePointers(snap)
		}
	}()
	return out, cancel, nil
}

// Delete removes only the owner's pointer. The partner's pointer and the
// underlying message history stay.
func (d *Directory) Delete(ctx context.Context, ownerUID, partnerUID string) error {
	return d.db.Delete(ctx, domain.UserConversationsCol(ownerUID), partnerUID)
}

// HasUnread is the unread badge the rest of the app renders: true when any
// of the owner's pointers is flagged.
func (d *Directory) HasUnread(ctx context.Context, ownerUID string) (bool, error) {
	pointers, err := d.List(ctx, ownerUID)
	if err != nil {
		return false, err
	}
	for _, p := range pointers {
		if p.HasUnread {
			return true, nil
		}
	}
	return false, nil
}

func decodePointers(docs []store.Doc) []domain.ConversationPointer {
	out := make([]domain.ConversationPointer, len(docs))
	for i, d := range docs {
		out[i] = domain.DecodePointer(d)
	}
	return out
}
