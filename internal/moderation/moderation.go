package moderation

import (
	"context"
	"errors"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// Service owns the public chat moderation state: the shared
// app_config/public_chat_meta document (pinned snapshot + banned set) and
// the per-profile isAdmin/isMuted flags.
//
// Moderation capability is two-tier: the profile isAdmin flag, or membership
// in the developer allow-list. The allow-list bypasses profile flags
// entirely and cannot be revoked through the API. Every moderation operation
// resolves capability through this one service.
type Service struct {
	db         store.Store
	log        *logger.Logger
	developers map[string]struct{}
}

func NewService(db store.Store, log *logger.Logger, developerIDs []string) *Service {
	devs := make(map[string]struct{}, len(developerIDs))
	for _, id := range developerIDs {
		devs[id] = struct{}{}
	}
	return &Service{db: db, log: log, developers: devs}
}

// IsDeveloper reports allow-list membership.
func (s *Service) IsDeveloper(uid string) bool {
	_, ok := s.developers[uid]
	return ok
}

// HasCapability resolves moderation capability for a profile:
// profile.isAdmin OR developer allow-list.
func (s *Service) HasCapability(p domain.Profile) bool {
	return p.IsAdmin || s.IsDeveloper(p.UID)
}

// Meta reads the shared moderation document. A missing document is an empty
// meta, not an error.
func (s *Service) Meta(ctx context.Context) (domain.ChatMeta, error) {
	doc, err := s.db.Get(ctx, domain.ColAppConfig, domain.PublicChatMetaID)
	if errors.Is(err, reclaim_errors.ErrNotFound) {
		return domain.ChatMeta{}, nil
	}
	if err != nil {
		return domain.ChatMeta{}, err
	}
	return domain.DecodeChatMeta(doc), nil
}

// WatchMeta streams the moderation document on every change.
func (s *Service) WatchMeta(ctx context.Context) (<-chan domain.ChatMeta, func(), error) {
	docs, cancel, err := s.db.Watch(ctx, domain.ColAppConfig, domain.PublicChatMetaID)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan domain.ChatMeta, 1)
	go func() {
		defer close(out)
		for d := range docs {
			out <- domain.DecodeChatMeta(d)
		}
	}()
	return out, cancel, nil
}

// guard enforces the shared preconditions of every moderation operation:
// the caller holds capability, targets someone else, and the target is not
// on the developer allow-list.
func (s *Service) guard(caller domain.Profile, targetUID string) error {
	if !s.HasCapability(caller) {
		return reclaim_errors.ErrPermissionDenied
	}
	if targetUID == caller.UID {
		return reclaim_errors.ErrInvalidInput
	}
	if s.IsDeveloper(targetUID) {
		return reclaim_errors.ErrPermissionDenied
	}
	return nil
}

// ToggleAdminRole flips the target profile's isAdmin flag. Only developer
// capability may promote or demote; ordinary admins cannot.
func (s *Service) ToggleAdminRole(ctx context.Context, caller domain.Profile, targetUID string) error {
	if !s.IsDeveloper(caller.UID) {
		return reclaim_errors.ErrPermissionDenied
	}
	if err := s.guard(caller, targetUID); err != nil {
		return err
	}
	target, err := s.db.Get(ctx, domain.ColUsers, targetUID)
	if err != nil {
		return err
	}
	return s.db.Apply(ctx, domain.ColUsers, targetUID,
		store.Set("isAdmin", !target.Bool("isAdmin")))
}

// ToggleMute flips the target profile's isMuted flag. Muted users may read
// but not send.
func (s *Service) ToggleMute(ctx context.Context, caller domain.Profile, targetUID string) error {
	if err := s.guard(caller, targetUID); err != nil {
		return err
	}
	target, err := s.db.Get(ctx, domain.ColUsers, targetUID)
	if err != nil {
		return err
	}
	return s.db.Apply(ctx, domain.ColUsers, targetUID,
		store.Set("isMuted", !target.Bool("isMuted")))
}

// ToggleBan flips the target's membership in the shared banned set. The
// toggle direction comes from a read that is not revalidated at write time:
// two admins toggling the same user concurrently race, and the loser's
// intent is silently absorbed. Accepted for this low-frequency admin path;
// see DESIGN.md before adding locking here.
func (s *Service) ToggleBan(ctx context.Context, caller domain.Profile, targetUID string) error {
	if err := s.guard(caller, targetUID); err != nil {
		return err
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	if meta.IsBanned(targetUID) {
		return s.db.Apply(ctx, domain.ColAppConfig, domain.PublicChatMetaID,
			store.RemoveFromSet("bannedUserIds", targetUID))
	}
	return s.db.Apply(ctx, domain.ColAppConfig, domain.PublicChatMetaID,
		store.AddToSet("bannedUserIds", targetUID))
}

// TogglePin pins the message snapshot, or unpins it when it is already the
// pinned one. Pinning while something else is pinned replaces it, so at most
// one message is pinned at a time. Same read-then-write race class as
// ToggleBan.
func (s *Service) TogglePin(ctx context.Context, caller domain.Profile, msg domain.Message) error {
	if !s.HasCapability(caller) {
		return reclaim_errors.ErrPermissionDenied
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	if meta.Pinned != nil && meta.Pinned.ID == msg.ID {
		return s.Unpin(ctx, caller)
	}
	pin := domain.PinnedMessage{
		ID:                msg.ID,
		Text:              msg.Text,
		AuthorID:          msg.AuthorID,
		AuthorDisplayName: msg.AuthorDisplayName,
	}
	return s.db.Apply(ctx, domain.ColAppConfig, domain.PublicChatMetaID, domain.PinOps(pin)...)
}

// Unpin clears the pinned snapshot.
func (s *Service) Unpin(ctx context.Context, caller domain.Profile) error {
	if !s.HasCapability(caller) {
		return reclaim_errors.ErrPermissionDenied
	}
	return s.db.Apply(ctx, domain.ColAppConfig, domain.PublicChatMetaID, domain.UnpinOps()...)
}
