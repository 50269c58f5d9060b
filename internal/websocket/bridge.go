package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
	"reclaim-chat/pkg/logger"
)

// frame is the outbound realtime envelope. Every frame carries a full
// snapshot of the topic's state; clients replace, never merge.
type frame struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  any    `json:"data"`
}

// Bridge turns store subscriptions into hub broadcasts. A feed starts when a
// topic gains its first subscriber and stops when it loses its last, so idle
// rooms cost nothing.
type Bridge struct {
	hub   *Hub
	chats *services.ChatService
	log   *logger.Logger

	mu    sync.Mutex
	feeds map[string]context.CancelFunc
}

func NewBridge(hub *Hub, chats *services.ChatService, log *logger.Logger) *Bridge {
	b := &Bridge{
		hub:   hub,
		chats: chats,
		log:   log,
		feeds: make(map[string]context.CancelFunc),
	}
	hub.SetTopicHooks(b.topicActive, b.topicIdle)
	return b
}

func (b *Bridge) topicActive(topic string) {
	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	if _, running := b.feeds[topic]; running {
		b.mu.Unlock()
		cancel()
		return
	}
	b.feeds[topic] = cancel
	b.mu.Unlock()

	go b.runFeed(ctx, topic)
}

func (b *Bridge) topicIdle(topic string) {
	b.mu.Lock()
	cancel, ok := b.feeds[topic]
	if ok {
		delete(b.feeds, topic)
	}
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

// Stop cancels every running feed.
func (b *Bridge) Stop() {
	b.mu.Lock()
	for topic, cancel := range b.feeds {
		cancel()
		delete(b.feeds, topic)
	}
	b.mu.Unlock()
}

func (b *Bridge) runFeed(ctx context.Context, topic string) {
	var err error
	switch {
	case topic == TopicPublic:
		err = b.sessionFeed(ctx, topic, b.chats.PublicSession(), chat.Viewer{}, true)
	case topic == TopicPublicAdmin:
		err = b.sessionFeed(ctx, topic, b.chats.PublicSession(), chat.Viewer{Admin: true}, true)
	case topic == TopicChatMeta:
		err = b.metaFeed(ctx)
	case strings.HasPrefix(topic, topicGroupPrefix):
		var session *chat.Session
		session, err = b.chats.GroupSession(ctx, strings.TrimPrefix(topic, topicGroupPrefix))
		if err == nil {
			err = b.sessionFeed(ctx, topic, session, chat.Viewer{}, false)
		}
	case strings.HasPrefix(topic, topicPrivatePrefix):
		err = b.privateFeed(ctx, topic, strings.TrimPrefix(topic, topicPrivatePrefix))
	case strings.HasPrefix(topic, topicInboxPrefix):
		err = b.inboxFeed(ctx, topic, strings.TrimPrefix(topic, topicInboxPrefix))
	}
	if err != nil && ctx.Err() == nil {
		b.log.Errorf("ws: feed %s: %v", topic, err)
	}
}

// sessionFeed re-renders the surface for its tier on every change. The same
// raw snapshot renders differently for the plain and admin public tiers.
// Surfaces whose render depends on the shared moderation document also watch
// it, so a ban lands on already-connected subscribers without waiting for
// the next message write.
func (b *Bridge) sessionFeed(ctx context.Context, topic string, session *chat.Session, v chat.Viewer, withMeta bool) error {
	ch, cancel, err := session.Open(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var meta <-chan domain.ChatMeta
	if withMeta {
		mch, mcancel, err := b.chats.Moderation().WatchMeta(ctx)
		if err != nil {
			return err
		}
		defer mcancel()
		meta = mch
	}

	var last []domain.Message
	var have bool
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			last, have = snap, true
		case _, ok := <-meta:
			if !ok {
				meta = nil
				continue
			}
			if !have {
				continue
			}
		case <-ctx.Done():
			return nil
		}
		rendered, err := session.Render(ctx, v, last)
		if err != nil {
			b.log.Errorf("ws: render %s: %v", topic, err)
			continue
		}
		b.broadcastMessages(ctx, topic, rendered)
	}
}

func (b *Bridge) privateFeed(ctx context.Context, topic, pairKey string) error {
	ch, cancel, err := b.chats.Messages().Subscribe(ctx, domain.PrivateMessagesCol(pairKey))
	if err != nil {
		return err
	}
	defer cancel()

	for snap := range ch {
		b.broadcastMessages(ctx, topic, snap)
	}
	return nil
}

func (b *Bridge) inboxFeed(ctx context.Context, topic, uid string) error {
	ch, cancel, err := b.chats.Directory().Subscribe(ctx, uid)
	if err != nil {
		return err
	}
	defer cancel()

	for pointers := range ch {
		b.send(topic, "conversations", pointers)
	}
	return nil
}

func (b *Bridge) metaFeed(ctx context.Context) error {
	ch, cancel, err := b.chats.Moderation().WatchMeta(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	for meta := range ch {
		b.send(TopicChatMeta, "chat_meta", meta)
	}
	return nil
}

func (b *Bridge) broadcastMessages(ctx context.Context, topic string, msgs []domain.Message) {
	profiles, err := b.chats.Hydrator().Profiles(ctx, msgs)
	if err != nil {
		b.log.Errorf("ws: hydrate %s: %v", topic, err)
		profiles = map[string]domain.Profile{}
	}
	authors := make(map[string]httpdto.AuthorProfile, len(profiles))
	for uid, p := range profiles {
		authors[uid] = httpdto.AuthorProfile{
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
			IsAdmin:     p.IsAdmin,
		}
	}
	b.send(topic, "messages", httpdto.MessageListResponse{
		Messages: msgs,
		Profiles: authors,
	})
}

func (b *Bridge) send(topic, kind string, data any) {
	payload, err := json.Marshal(frame{Topic: topic, Type: kind, Data: data})
	if err != nil {
		b.log.Errorf("ws: encode %s: %v", topic, err)
		return
	}
	b.hub.Broadcast(topic, payload)
}
