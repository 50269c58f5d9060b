package httpdto

import "reclaim-chat/internal/domain"

type SendMessageRequest struct {
	Text             string `json:"text" binding:"required"`
	ReplyToMessageID string `json:"reply_to_message_id"`
}

type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
}

// MessageListResponse is a rendered message window plus the author profiles
// the client needs to draw it, and the pinned snapshot where the surface has
// one.
type MessageListResponse struct {
	Messages []domain.Message         `json:"messages"`
	Profiles map[string]AuthorProfile `json:"profiles"`
	Pinned   *domain.PinnedMessage    `json:"pinned,omitempty"`
}

type AuthorProfile struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	IsAdmin     bool   `json:"isAdmin,omitempty"`
}

type CreateGroupRequest struct {
	Name     string `json:"name" binding:"required"`
	PhotoURL string `json:"photo_url"`
}

type ModerationTargetRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type PinRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

type UnreadResponse struct {
	HasUnread bool `json:"has_unread"`
}
