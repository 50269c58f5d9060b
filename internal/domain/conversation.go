package domain

import "time"

// ConversationPointer is the per-user summary record for one private chat
// partner, stored under users/{owner}/conversations/{partnerId}. Each active
// private conversation has two of these, one per participant; only the
// recipient's copy is ever flagged unread.
type ConversationPointer struct {
	PartnerID          string    `json:"partnerId"`
	PartnerDisplayName string    `json:"partnerDisplayName"`
	PartnerPhotoURL    string    `json:"partnerPhotoURL,omitempty"`
	PartnerEmail       string    `json:"partnerEmail,omitempty"`
	LastMessageAt      time.Time `json:"lastMessageAt"`
	HasUnread          bool      `json:"hasUnread"`
}

// Group is the groups/{id} document. Messages live in a child collection.
// MemberIDs is write-only for now: the creator is the sole initial member.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	MemberIDs     []string  `json:"memberIds"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}
