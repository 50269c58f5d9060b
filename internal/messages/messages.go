package messages

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// HistoryLimit caps every subscription and read at the most recent messages.
const HistoryLimit = 100

// Outgoing is the payload the controller hands to Send. Permission checks
// happen before Send is called; the store itself is not permission-aware.
type Outgoing struct {
	Text    string
	Author  domain.Identity
	ReplyTo *domain.ReplyRef
}

// Store is the message store component: one instance serves all three chat
// surfaces, addressed by collection.
type Store struct {
	db  store.Store
	log *logger.Logger
}

func NewStore(db store.Store, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

func historyQuery() store.Query {
	// Most recent HistoryLimit, re-sorted ascending for rendering.
	return store.Query{OrderBy: "createdAt", Desc: true, Limit: HistoryLimit}
}

// Subscribe streams the conversation's messages, ascending by creation time,
// capped at the most recent HistoryLimit. Every change delivers the full
// snapshot; consumers assume no incremental diff contract.
func (s *Store) Subscribe(ctx context.Context, col string) (<-chan []domain.Message, func(), error) {
	docs, cancel, err := s.db.Subscribe(ctx, col, historyQuery())
	if err != nil {
		return nil, nil, err
	}
	out := make(chan []domain.Message, 1)
	go func() {
		defer close(out)
		for snap := range docs {
			out <- decodeAscending(snap)
		}
	}()
	return out, cancel, nil
}

// List performs a one-shot read with the same window as Subscribe.
func (s *Store) List(ctx context.Context, col string) ([]domain.Message, error) {
	docs, err := s.db.List(ctx, col, historyQuery())
	if err != nil {
		return nil, err
	}
	return decodeAscending(docs), nil
}

// Get reads one message.
func (s *Store) Get(ctx context.Context, col, id string) (domain.Message, error) {
	doc, err := s.db.Get(ctx, col, id)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.DecodeMessage(doc), nil
}

// Send appends a message and returns its id. createdAt is server-assigned.
func (s *Store) Send(ctx context.Context, col string, out Outgoing) (string, error) {
	if strings.TrimSpace(out.Text) == "" || out.Author.UID == "" {
		return "", reclaim_errors.ErrInvalidInput
	}
	id := uuid.NewString()
	ops := domain.MessageOps(out.Text, out.Author, out.ReplyTo)
	if err := s.db.Apply(ctx, col, id, ops...); err != nil {
		return "", err
	}
	return id, nil
}

// Edit replaces the message text in place. createdAt, reactions and reply
// snapshots elsewhere are untouched. The write is update-only: editing a
// message deleted in the meantime returns ErrNotFound instead of leaving a
// text-only stub behind.
func (s *Store) Edit(ctx context.Context, col, id, newText string) error {
	if strings.TrimSpace(newText) == "" {
		return reclaim_errors.ErrInvalidInput
	}
	return s.db.Update(ctx, col, id, store.Set("text", newText))
}

// Delete hard-deletes the message. Reply snapshots referencing it elsewhere
// are left dangling on purpose.
func (s *Store) Delete(ctx context.Context, col, id string) error {
	return s.db.Delete(ctx, col, id)
}

// ToggleReaction flips uid's membership in the emoji's reaction set. The
// write leg always goes through the store's add/remove-from-set primitives,
// never a read-modify-write of the document, so concurrent togglers on other
// emojis or other users on this emoji cannot clobber each other.
func (s *Store) ToggleReaction(ctx context.Context, col, id, emoji, uid string) error {
	if emoji == "" || uid == "" {
		return reclaim_errors.ErrInvalidInput
	}
	msg, err := s.Get(ctx, col, id)
	if err != nil {
		return err
	}
	field := domain.ReactionField(emoji)
	if msg.HasReacted(emoji, uid) {
		return s.db.Update(ctx, col, id, store.RemoveFromSet(field, uid))
	}
	return s.db.Update(ctx, col, id, store.AddToSet(field, uid))
}

func decodeAscending(docs []store.Doc) []domain.Message {
	out := make([]domain.Message, len(docs))
	// Store query returns newest-first; render order is oldest-first.
	for i, d := range docs {
		out[len(docs)-1-i] = domain.DecodeMessage(d)
	}
	return out
}
