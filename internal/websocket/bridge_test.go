package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/directory"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/messages"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/store"
	"reclaim-chat/pkg/logger"
)

func newTestBridge(t *testing.T) (*Hub, *services.ChatService, func()) {
	t.Helper()
	db := store.NewMemoryStore()
	log := logger.New("test")
	msgs := messages.NewStore(db, log)
	mod := moderation.NewService(db, log, nil)
	chats := services.NewChatService(db, msgs, directory.New(db, log), mod, messages.NewHydrator(db), log)

	hub := NewHub()
	bridge := NewBridge(hub, chats, log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, chats, func() {
		cancel()
		bridge.Stop()
	}
}

type messagesFrame struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Messages []domain.Message `json:"messages"`
	} `json:"data"`
}

// awaitFrame drains the client's send buffer until a messages frame for the
// topic satisfies ok, or fails after two seconds.
func awaitFrame(t *testing.T, c *Client, topic string, ok func(messagesFrame) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload := <-c.send:
			var f messagesFrame
			if err := json.Unmarshal(payload, &f); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if f.Topic == topic && f.Type == "messages" && ok(f) {
				return
			}
		case <-deadline:
			t.Fatalf("no matching frame on %s within deadline", topic)
		}
	}
}

func TestPublicFeedReRendersWhenBanSetChanges(t *testing.T) {
	ctx := context.Background()
	hub, chats, stop := newTestBridge(t)
	defer stop()

	troll := chat.Viewer{
		Identity: domain.Identity{UID: "troll", DisplayName: "troll"},
		Profile:  domain.Profile{UID: "troll"},
	}
	if _, err := chats.PublicSession().Send(ctx, troll, "still here", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	client := NewClient(nil, "viewer")
	hub.Register(client)
	hub.Subscribe(client, TopicPublic)

	// The initial snapshot shows the soon-to-be-banned author.
	awaitFrame(t, client, TopicPublic, func(f messagesFrame) bool {
		return len(f.Data.Messages) == 1
	})

	admin := domain.Profile{UID: "mod", IsAdmin: true}
	if err := chats.Moderation().ToggleBan(ctx, admin, "troll"); err != nil {
		t.Fatalf("ToggleBan: %v", err)
	}

	// No message write follows the ban. The plain tier must still refresh
	// and hide the banned author's history.
	awaitFrame(t, client, TopicPublic, func(f messagesFrame) bool {
		return len(f.Data.Messages) == 0
	})
}

func TestAdminFeedKeepsBannedAuthorsVisible(t *testing.T) {
	ctx := context.Background()
	hub, chats, stop := newTestBridge(t)
	defer stop()

	troll := chat.Viewer{
		Identity: domain.Identity{UID: "troll", DisplayName: "troll"},
		Profile:  domain.Profile{UID: "troll"},
	}
	if _, err := chats.PublicSession().Send(ctx, troll, "exhibit a", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	client := NewClient(nil, "mod")
	hub.Register(client)
	hub.Subscribe(client, TopicPublicAdmin)
	awaitFrame(t, client, TopicPublicAdmin, func(f messagesFrame) bool {
		return len(f.Data.Messages) == 1
	})

	admin := domain.Profile{UID: "mod", IsAdmin: true}
	if err := chats.Moderation().ToggleBan(ctx, admin, "troll"); err != nil {
		t.Fatalf("ToggleBan: %v", err)
	}

	// The ban still triggers a refresh, and the admin tier keeps the full
	// history in view.
	awaitFrame(t, client, TopicPublicAdmin, func(f messagesFrame) bool {
		return len(f.Data.Messages) == 1 && f.Data.Messages[0].AuthorID == "troll"
	})
}
