package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/directory"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/messages"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// ChatService builds sessions for the three chat surfaces and owns group
// bookkeeping. The public session is shared; group and private sessions are
// constructed per request around their surface parameters.
type ChatService struct {
	db     store.Store
	msgs   *messages.Store
	dir    *directory.Directory
	mod    *moderation.Service
	hyd    *messages.Hydrator
	log    *logger.Logger
	public *chat.Session
}

func NewChatService(db store.Store, msgs *messages.Store, dir *directory.Directory, mod *moderation.Service, hyd *messages.Hydrator, log *logger.Logger) *ChatService {
	return &ChatService{
		db:     db,
		msgs:   msgs,
		dir:    dir,
		mod:    mod,
		hyd:    hyd,
		log:    log,
		public: chat.NewSession(chat.PublicSurface(mod), msgs, log),
	}
}

func (s *ChatService) Hydrator() *messages.Hydrator    { return s.hyd }
func (s *ChatService) Messages() *messages.Store       { return s.msgs }
func (s *ChatService) Directory() *directory.Directory { return s.dir }
func (s *ChatService) Moderation() *moderation.Service { return s.mod }

// PublicSession is the single global chat surface.
func (s *ChatService) PublicSession() *chat.Session {
	return s.public
}

// GroupSession builds a session scoped to an existing group.
func (s *ChatService) GroupSession(ctx context.Context, groupID string) (*chat.Session, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return chat.NewSession(chat.GroupSurface(s.db, group), s.msgs, s.log), nil
}

// PrivateSession builds a session for the caller and one partner, and clears
// the caller's unread flag for that thread: opening is reading.
func (s *ChatService) PrivateSession(ctx context.Context, me domain.Identity, partnerUID string) (*chat.Session, error) {
	if partnerUID == "" || partnerUID == me.UID {
		return nil, reclaim_errors.ErrInvalidInput
	}
	if _, err := s.db.Get(ctx, domain.ColUsers, partnerUID); err != nil {
		return nil, err
	}
	if err := s.dir.MarkRead(ctx, me.UID, partnerUID); err != nil {
		// Best-effort bookkeeping; the thread still opens.
		s.log.Errorf("chat: clear unread %s/%s: %v", me.UID, partnerUID, err)
	}
	return chat.NewSession(chat.PrivateSurface(s.db, s.dir, me, partnerUID), s.msgs, s.log), nil
}

// CreateGroup creates a group with the creator as sole initial member.
func (s *ChatService) CreateGroup(ctx context.Context, creator domain.Identity, name, photoURL string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, reclaim_errors.ErrInvalidInput
	}
	id := uuid.NewString()
	err := s.db.Apply(ctx, domain.ColGroups, id,
		store.Set("name", name),
		store.Set("photoURL", photoURL),
		store.Set("createdBy", creator.UID),
		store.AddToSet("memberIds", creator.UID),
		store.ServerTime("createdAt"),
		store.ServerTime("lastMessageAt"),
	)
	if err != nil {
		return domain.Group{}, err
	}
	return s.GetGroup(ctx, id)
}

// GetGroup reads one group document.
func (s *ChatService) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	doc, err := s.db.Get(ctx, domain.ColGroups, id)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.DecodeGroup(doc), nil
}

// ListGroups returns groups by recency of activity.
func (s *ChatService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	docs, err := s.db.List(ctx, domain.ColGroups,
		store.Query{OrderBy: "lastMessageAt", Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Group, len(docs))
	for i, d := range docs {
		out[i] = domain.DecodeGroup(d)
	}
	return out, nil
}
