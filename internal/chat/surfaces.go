package chat

import (
	"context"

	"reclaim-chat/internal/directory"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/store"
)

// PublicSurface is the single global chat. Muted and banned users may read
// but not send; banned users' history is hidden from non-admin renders while
// staying in the store.
func PublicSurface(mod *moderation.Service) Surface {
	return Surface{
		Name:       "public",
		Collection: domain.ColPublicMessages,
		CanSend: func(ctx context.Context, v Viewer) error {
			if v.Profile.IsMuted {
				return denied("muted")
			}
			meta, err := mod.Meta(ctx)
			if err != nil {
				return err
			}
			if meta.IsBanned(v.Identity.UID) {
				return denied("banned")
			}
			return nil
		},
		CanDelete: func(v Viewer, msg domain.Message) bool {
			return msg.AuthorID == v.Identity.UID || v.Admin
		},
		Filter: func(ctx context.Context, v Viewer, msgs []domain.Message) ([]domain.Message, error) {
			if v.Admin {
				return msgs, nil
			}
			meta, err := mod.Meta(ctx)
			if err != nil {
				return nil, err
			}
			if len(meta.BannedUserIDs) == 0 {
				return msgs, nil
			}
			out := make([]domain.Message, 0, len(msgs))
			for _, m := range msgs {
				if !meta.IsBanned(m.AuthorID) {
					out = append(out, m)
				}
			}
			return out, nil
		},
	}
}

// GroupSurface scopes a session to one group. Delete authority is the author
// or the group creator, not the global admin set. Every send refreshes the
// parent group's preview fields, best-effort.
func GroupSurface(db store.Store, group domain.Group) Surface {
	return Surface{
		Name:       "group:" + group.ID,
		Collection: domain.GroupMessagesCol(group.ID),
		CanDelete: func(v Viewer, msg domain.Message) bool {
			return msg.AuthorID == v.Identity.UID || group.CreatedBy == v.Identity.UID
		},
		OnSend: []SideEffect{{
			Name: "group preview update",
			Mode: BestEffort,
			Run: func(ctx context.Context, msg domain.Message) error {
				return db.Apply(ctx, domain.ColGroups, group.ID,
					store.Set("lastMessage", msg.Text),
					store.ServerTime("lastMessageAt"),
				)
			},
		}},
	}
}

// PrivateSurface scopes a session to one participant pair. Both participants
// resolve the same collection through the pair key. Sending is blocked
// bidirectionally: either party's block list stops it. Every send dual-writes
// both conversation pointers, best-effort.
func PrivateSurface(db store.Store, dir *directory.Directory, me domain.Identity, partnerUID string) Surface {
	fetchPartner := func(ctx context.Context) (domain.Profile, error) {
		doc, err := db.Get(ctx, domain.ColUsers, partnerUID)
		if err != nil {
			return domain.Profile{}, err
		}
		return domain.DecodeProfile(doc), nil
	}
	return Surface{
		Name:       "private:" + domain.PairKey(me.UID, partnerUID),
		Collection: domain.PrivateMessagesCol(domain.PairKey(me.UID, partnerUID)),
		CanSend: func(ctx context.Context, v Viewer) error {
			partner, err := fetchPartner(ctx)
			if err != nil {
				return err
			}
			if v.Profile.HasBlocked(partnerUID) {
				return denied("you have blocked this user")
			}
			if partner.HasBlocked(v.Identity.UID) {
				return denied("blocked by recipient")
			}
			return nil
		},
		CanDelete: func(v Viewer, msg domain.Message) bool {
			return msg.AuthorID == v.Identity.UID || v.Admin
		},
		OnSend: []SideEffect{{
			Name: "conversation pointer dual-write",
			Mode: BestEffort,
			Run: func(ctx context.Context, msg domain.Message) error {
				partner, err := fetchPartner(ctx)
				if err != nil {
					return err
				}
				dir.RecordSend(ctx, me, partner)
				return nil
			},
		}},
	}
}
