package domain

import "time"

// ReplyRef is a denormalized snapshot of the replied-to message taken at
// send time. It is never updated when the original is edited or deleted.
type ReplyRef struct {
	MessageID         string `json:"messageId"`
	Text              string `json:"text"`
	AuthorDisplayName string `json:"authorDisplayName"`
}

// Message is one chat message document. Reactions maps emoji to the set of
// reactor user ids; an emoji key with no reactors is removed, never kept
// empty.
type Message struct {
	ID                string              `json:"id"`
	Text              string              `json:"text"`
	AuthorID          string              `json:"authorId"`
	AuthorDisplayName string              `json:"authorDisplayName"`
	AuthorPhotoURL    string              `json:"authorPhotoURL,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	Reactions         map[string][]string `json:"reactions,omitempty"`
	ReplyTo           *ReplyRef           `json:"replyTo,omitempty"`
}

// HasReacted reports whether uid is in the reaction set for emoji.
func (m Message) HasReacted(emoji, uid string) bool {
	for _, id := range m.Reactions[emoji] {
		if id == uid {
			return true
		}
	}
	return false
}
