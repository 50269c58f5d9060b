package chat

import (
	"context"
	"fmt"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/messages"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// Viewer is the acting user as the chat core sees them: token identity,
// current profile document, and resolved moderation capability.
type Viewer struct {
	Identity domain.Identity
	Profile  domain.Profile
	Admin    bool
}

// EffectMode types an operation's failure contract. Critical results are
// required and surfaced; best-effort results are logged and dropped.
type EffectMode int

const (
	Critical EffectMode = iota
	BestEffort
)

// SideEffect is extra work attached to a successful send, e.g. the group
// preview update or the conversation pointer dual-write.
type SideEffect struct {
	Name string
	Mode EffectMode
	Run  func(ctx context.Context, msg domain.Message) error
}

// Surface parameterizes a Session for one of the three chat modes. The
// permission predicates are advisory client-side checks; the store itself
// enforces nothing.
type Surface struct {
	Name       string
	Collection string

	// CanSend gates sending. nil allows everyone.
	CanSend func(ctx context.Context, v Viewer) error

	// CanDelete gates deletion of a specific message.
	CanDelete func(v Viewer, msg domain.Message) bool

	// Filter trims a snapshot for a specific viewer before rendering.
	// nil renders everything.
	Filter func(ctx context.Context, v Viewer, msgs []domain.Message) ([]domain.Message, error)

	OnSend []SideEffect
}

// Session orchestrates one open chat surface: permission checks, payload
// construction, message writes and their side effects. The same code path
// serves public, group and private chat; only the Surface differs.
type Session struct {
	surface Surface
	msgs    *messages.Store
	log     *logger.Logger
}

func NewSession(surface Surface, msgs *messages.Store, log *logger.Logger) *Session {
	return &Session{surface: surface, msgs: msgs, log: log}
}

func (s *Session) Surface() Surface { return s.surface }

// Open subscribes to the surface's message stream. The stream is unfiltered;
// callers render per viewer with Render. cancel tears the listener down when
// the surface closes.
func (s *Session) Open(ctx context.Context) (<-chan []domain.Message, func(), error) {
	return s.msgs.Subscribe(ctx, s.surface.Collection)
}

// Messages is a one-shot filtered read for the given viewer.
func (s *Session) Messages(ctx context.Context, v Viewer) ([]domain.Message, error) {
	snap, err := s.msgs.List(ctx, s.surface.Collection)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, v, snap)
}

// Render applies the surface's viewer-dependent filter to a snapshot.
func (s *Session) Render(ctx context.Context, v Viewer, snap []domain.Message) ([]domain.Message, error) {
	if s.surface.Filter == nil {
		return snap, nil
	}
	return s.surface.Filter(ctx, v, snap)
}

// Send checks permissions, writes the message, then runs the surface's send
// side effects. Critical effect failures surface to the caller; best-effort
// failures are logged and dropped.
func (s *Session) Send(ctx context.Context, v Viewer, text string, replyTo *domain.ReplyRef) (string, error) {
	if s.surface.CanSend != nil {
		if err := s.surface.CanSend(ctx, v); err != nil {
			return "", err
		}
	}
	id, err := s.msgs.Send(ctx, s.surface.Collection, messages.Outgoing{
		Text:    text,
		Author:  v.Identity,
		ReplyTo: replyTo,
	})
	if err != nil {
		return "", err
	}
	sent := domain.Message{
		ID:                id,
		Text:              text,
		AuthorID:          v.Identity.UID,
		AuthorDisplayName: v.Identity.DisplayName,
		AuthorPhotoURL:    v.Identity.PhotoURL,
		ReplyTo:           replyTo,
	}
	for _, effect := range s.surface.OnSend {
		if err := effect.Run(ctx, sent); err != nil {
			if effect.Mode == Critical {
				return id, err
			}
			s.log.Errorf("chat %s: %s: %v", s.surface.Name, effect.Name, err)
		}
	}
	return id, nil
}

// Edit replaces a message's text. Author-only on every surface.
func (s *Session) Edit(ctx context.Context, v Viewer, msgID, text string) error {
	msg, err := s.msgs.Get(ctx, s.surface.Collection, msgID)
	if err != nil {
		return err
	}
	if msg.AuthorID != v.Identity.UID {
		return reclaim_errors.ErrPermissionDenied
	}
	return s.msgs.Edit(ctx, s.surface.Collection, msgID, text)
}

// Delete hard-deletes a message, subject to the surface's delete predicate.
func (s *Session) Delete(ctx context.Context, v Viewer, msgID string) error {
	msg, err := s.msgs.Get(ctx, s.surface.Collection, msgID)
	if err != nil {
		return err
	}
	if s.surface.CanDelete != nil && !s.surface.CanDelete(v, msg) {
		return reclaim_errors.ErrPermissionDenied
	}
	return s.msgs.Delete(ctx, s.surface.Collection, msgID)
}

// ToggleReaction is fire-and-forget: any participant may react, errors are
// logged and never block the user.
func (s *Session) ToggleReaction(ctx context.Context, v Viewer, msgID, emoji string) {
	if err := s.msgs.ToggleReaction(ctx, s.surface.Collection, msgID, emoji, v.Identity.UID); err != nil {
		s.log.Errorf("chat %s: reaction toggle on %s: %v", s.surface.Name, msgID, err)
	}
}

// Message reads one message from the surface.
func (s *Session) Message(ctx context.Context, msgID string) (domain.Message, error) {
	return s.msgs.Get(ctx, s.surface.Collection, msgID)
}

// ReplySnapshot builds the denormalized reply reference for a message being
// replied to. The snapshot is taken now and never updated afterwards.
func (s *Session) ReplySnapshot(ctx context.Context, msgID string) (*domain.ReplyRef, error) {
	msg, err := s.msgs.Get(ctx, s.surface.Collection, msgID)
	if err != nil {
		return nil, err
	}
	return &domain.ReplyRef{
		MessageID:         msg.ID,
		Text:              msg.Text,
		AuthorDisplayName: msg.AuthorDisplayName,
	}, nil
}

func denied(reason string) error {
	return fmt.Errorf("%w: %s", reclaim_errors.ErrPermissionDenied, reason)
}
