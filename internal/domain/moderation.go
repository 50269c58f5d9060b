package domain

// PinnedMessage is the snapshot of an admin-pinned public chat message.
type PinnedMessage struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	AuthorID          string `json:"authorId"`
	AuthorDisplayName string `json:"authorDisplayName"`
}

// ChatMeta is the single shared moderation document for the public chat,
// stored at app_config/public_chat_meta. It is multi-writer with no per-field
// locking: concurrent admin toggles are last-writer-wins.
type ChatMeta struct {
	Pinned        *PinnedMessage `json:"pinnedMessage,omitempty"`
	BannedUserIDs []string       `json:"bannedUserIds,omitempty"`
}

// IsBanned reports whether uid is in the banned set.
func (m ChatMeta) IsBanned(uid string) bool {
	for _, id := range m.BannedUserIDs {
		if id == uid {
			return true
		}
	}
	return false
}
