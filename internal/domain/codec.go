package domain

import (
	"strings"

	"reclaim-chat/internal/store"
)

// Field names as persisted in the document store. Reaction sets are stored
// as one set-valued field per emoji under the "reactions." prefix, so the
// store's add/remove-from-set primitives apply per (message, emoji).
const (
	reactionPrefix = "reactions."

	fieldReplyID   = "replyTo.messageId"
	fieldReplyText = "replyTo.text"
	fieldReplyName = "replyTo.authorDisplayName"
)

// ReactionField returns the set-valued field holding reactors for emoji.
func ReactionField(emoji string) string {
	return reactionPrefix + emoji
}

// DecodeMessage maps a message document onto the domain type.
func DecodeMessage(d store.Doc) Message {
	m := Message{
		ID:                d.ID,
		Text:              d.String("text"),
		AuthorID:          d.String("authorId"),
		AuthorDisplayName: d.String("authorDisplayName"),
		AuthorPhotoURL:    d.String("authorPhotoURL"),
		CreatedAt:         d.Time("createdAt"),
	}
	for field, members := range d.Sets {
		if emoji, ok := strings.CutPrefix(field, reactionPrefix); ok {
			if m.Reactions == nil {
				m.Reactions = make(map[string][]string)
			}
			m.Reactions[emoji] = members
		}
	}
	if id := d.String(fieldReplyID); id != "" {
		m.ReplyTo = &ReplyRef{
			MessageID:         id,
			Text:              d.String(fieldReplyText),
			AuthorDisplayName: d.String(fieldReplyName),
		}
	}
	return m
}

// MessageOps builds the field operations for a new message document.
// createdAt is server-assigned.
func MessageOps(text string, author Identity, replyTo *ReplyRef) []store.Op {
	ops := []store.Op{
		store.Set("text", text),
		store.Set("authorId", author.UID),
		store.Set("authorDisplayName", author.DisplayName),
		store.Set("authorPhotoURL", author.PhotoURL),
		store.ServerTime("createdAt"),
	}
	if replyTo != nil {
		ops = append(ops,
			store.Set(fieldReplyID, replyTo.MessageID),
			store.Set(fieldReplyText, replyTo.Text),
			store.Set(fieldReplyName, replyTo.AuthorDisplayName),
		)
	}
	return ops
}

// DecodeProfile maps a users/{uid} document onto the domain type.
func DecodeProfile(d store.Doc) Profile {
	p := Profile{
		UID:            d.ID,
		DisplayName:    d.String("displayName"),
		PhotoURL:       d.String("photoURL"),
		Email:          d.String("email"),
		IsAdmin:        d.Bool("isAdmin"),
		IsMuted:        d.Bool("isMuted"),
		BlockedUserIDs: d.Sets["blockedUserIds"],
	}
	if t := d.Time("cleanSince"); !t.IsZero() {
		p.CleanSince = &t
	}
	return p
}

// DecodeGroup maps a groups/{id} document onto the domain type.
func DecodeGroup(d store.Doc) Group {
	return Group{
		ID:            d.ID,
		Name:          d.String("name"),
		PhotoURL:      d.String("photoURL"),
		MemberIDs:     d.Sets["memberIds"],
		CreatedBy:     d.String("createdBy"),
		CreatedAt:     d.Time("createdAt"),
		LastMessage:   d.String("lastMessage"),
		LastMessageAt: d.Time("lastMessageAt"),
	}
}

// DecodePointer maps a conversation pointer document onto the domain type.
func DecodePointer(d store.Doc) ConversationPointer {
	return ConversationPointer{
		PartnerID:          d.ID,
		PartnerDisplayName: d.String("partnerDisplayName"),
		PartnerPhotoURL:    d.String("partnerPhotoURL"),
		PartnerEmail:       d.String("partnerEmail"),
		LastMessageAt:      d.Time("lastMessageAt"),
		HasUnread:          d.Bool("hasUnread"),
	}
}

// DecodeChatMeta maps the public chat moderation document onto the domain
// type.
func DecodeChatMeta(d store.Doc) ChatMeta {
	meta := ChatMeta{BannedUserIDs: d.Sets["bannedUserIds"]}
	if id := d.String("pinnedMessage.id"); id != "" {
		meta.Pinned = &PinnedMessage{
			ID:                id,
			Text:              d.String("pinnedMessage.text"),
			AuthorID:          d.String("pinnedMessage.authorId"),
			AuthorDisplayName: d.String("pinnedMessage.authorDisplayName"),
		}
	}
	return meta
}

// PinOps builds the field writes that pin a message snapshot.
func PinOps(p PinnedMessage) []store.Op {
	return []store.Op{
		store.Set("pinnedMessage.id", p.ID),
		store.Set("pinnedMessage.text", p.Text),
		store.Set("pinnedMessage.authorId", p.AuthorID),
		store.Set("pinnedMessage.authorDisplayName", p.AuthorDisplayName),
	}
}

// UnpinOps builds the field deletes that clear the pinned snapshot.
func UnpinOps() []store.Op {
	return []store.Op{
		store.Delete("pinnedMessage.id"),
		store.Delete("pinnedMessage.text"),
		store.Delete("pinnedMessage.authorId"),
		store.Delete("pinnedMessage.authorDisplayName"),
	}
}
