package websocket

import (
	"context"
	"strings"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/services"
)

// Topic names follow "<kind>:<qualifier>". The public room has two tiers:
// the plain feed hides messages from banned authors, the admin tier shows
// everything.
const (
	TopicPublic      = "chat:public"
	TopicPublicAdmin = "chat:public:admin"
	TopicChatMeta    = "chat:meta"

	topicGroupPrefix   = "group:"
	topicPrivatePrefix = "private:"
	topicInboxPrefix   = "inbox:"
)

func GroupTopic(groupID string) string   { return topicGroupPrefix + groupID }
func PrivateTopic(pairKey string) string { return topicPrivatePrefix + pairKey }
func InboxTopic(uid string) string       { return topicInboxPrefix + uid }

// Authorizer decides whether a user may attach to a topic.
type Authorizer struct {
	profiles *services.ProfileService
	mod      *moderation.Service
}

func NewAuthorizer(profiles *services.ProfileService, mod *moderation.Service) *Authorizer {
	return &Authorizer{profiles: profiles, mod: mod}
}

func (a *Authorizer) CanSubscribe(ctx context.Context, uid, topic string) (bool, error) {
	switch {
	case topic == TopicPublic, topic == TopicChatMeta:
		return true, nil

	case topic == TopicPublicAdmin:
		profile, err := a.profiles.Get(ctx, uid)
		if err != nil {
			return false, nil
		}
		return a.mod.HasCapability(profile), nil

	case strings.HasPrefix(topic, topicGroupPrefix):
		// Group rooms are open to every signed-in user.
		return strings.TrimPrefix(topic, topicGroupPrefix) != "", nil

	case strings.HasPrefix(topic, topicPrivatePrefix):
		key := strings.TrimPrefix(topic, topicPrivatePrefix)
		a1, b1, ok := strings.Cut(key, "_")
		if !ok {
			return false, nil
		}
		// Only the two participants may listen, and the key must be in
		// canonical order.
		return (a1 == uid || b1 == uid) && domain.PairKey(a1, b1) == key, nil

	case strings.HasPrefix(topic, topicInboxPrefix):
		return strings.TrimPrefix(topic, topicInboxPrefix) == uid, nil
	}
	return false, nil
}
