package services

import (
	"context"
	"errors"
	"strings"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
)

// ProfileService reads and mutates the chat-visible users/{uid} document.
type ProfileService struct {
	db  store.Store
	mod *moderation.Service
}

func NewProfileService(db store.Store, mod *moderation.Service) *ProfileService {
	return &ProfileService{db: db, mod: mod}
}

func (s *ProfileService) Get(ctx context.Context, uid string) (domain.Profile, error) {
	doc, err := s.db.Get(ctx, domain.ColUsers, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.DecodeProfile(doc), nil
}

// Viewer assembles the chat viewer for an identity: current profile plus
// resolved moderation capability. A missing profile document degrades to a
// zero profile rather than blocking the user out of chat.
func (s *ProfileService) Viewer(ctx context.Context, id domain.Identity) (chat.Viewer, error) {
	profile, err := s.Get(ctx, id.UID)
	if errors.Is(err, reclaim_errors.ErrNotFound) {
		profile = domain.Profile{UID: id.UID, DisplayName: id.DisplayName, PhotoURL: id.PhotoURL}
		err = nil
	}
	if err != nil {
		return chat.Viewer{}, err
	}
	return chat.Viewer{
		Identity: id,
		Profile:  profile,
		Admin:    s.mod.HasCapability(profile),
	}, nil
}

// Update edits the owner's display name and photo.
func (s *ProfileService) Update(ctx context.Context, uid, displayName, photoURL string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return reclaim_errors.ErrInvalidInput
	}
	return s.db.Apply(ctx, domain.ColUsers, uid,
		store.Set("displayName", displayName),
		store.Set("photoURL", photoURL),
	)
}

// Block adds target to the owner's block list. Blocking is owner-local and
// not mutual.
func (s *ProfileService) Block(ctx context.Context, ownerUID, targetUID string) error {
	if ownerUID == targetUID || targetUID == "" {
		return reclaim_errors.ErrInvalidInput
	}
	return s.db.Apply(ctx, domain.ColUsers, ownerUID,
		store.AddToSet("blockedUserIds", targetUID))
}

// Unblock removes target from the owner's block list.
func (s *ProfileService) Unblock(ctx context.Context, ownerUID, targetUID string) error {
	return s.db.Apply(ctx, domain.ColUsers, ownerUID,
		store.RemoveFromSet("blockedUserIds", targetUID))
}

// ResetCleanDate restarts the habit counter at a server-assigned now.
func (s *ProfileService) ResetCleanDate(ctx context.Context, uid string) error {
	return s.db.Apply(ctx, domain.ColUsers, uid, store.ServerTime("cleanSince"))
}
