package websocket

import (
	"context"
	"testing"

	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/store"
	"reclaim-chat/pkg/logger"
)

func newTestAuthorizer(t *testing.T) (*Authorizer, *store.MemoryStore) {
	t.Helper()
	db := store.NewMemoryStore()
	mod := moderation.NewService(db, logger.New("test"), nil)
	return NewAuthorizer(services.NewProfileService(db, mod), mod), db
}

func seedUser(t *testing.T, db *store.MemoryStore, uid string, admin bool) {
	t.Helper()
	if err := db.Set(context.Background(), domain.ColUsers, uid, map[string]any{
		"displayName": uid,
		"isAdmin":     admin,
	}); err != nil {
		t.Fatalf("seed %s: %v", uid, err)
	}
}

func TestCanSubscribePublicTiers(t *testing.T) {
	ctx := context.Background()
	a, db := newTestAuthorizer(t)
	seedUser(t, db, "plain", false)
	seedUser(t, db, "boss", true)

	for _, topic := range []string{TopicPublic, TopicChatMeta} {
		if ok, err := a.CanSubscribe(ctx, "plain", topic); err != nil || !ok {
			t.Errorf("CanSubscribe(plain, %s) = %v, %v; want true", topic, ok, err)
		}
	}

	if ok, _ := a.CanSubscribe(ctx, "plain", TopicPublicAdmin); ok {
		t.Error("non-admin allowed onto the admin tier")
	}
	if ok, err := a.CanSubscribe(ctx, "boss", TopicPublicAdmin); err != nil || !ok {
		t.Errorf("CanSubscribe(boss, admin tier) = %v, %v; want true", ok, err)
	}
}

func TestCanSubscribePrivateRequiresParticipantAndCanonicalKey(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthorizer(t)

	key := domain.PairKey("adam", "beth")
	if ok, err := a.CanSubscribe(ctx, "adam", PrivateTopic(key)); err != nil || !ok {
		t.Errorf("participant = %v, %v; want true", ok, err)
	}
	if ok, _ := a.CanSubscribe(ctx, "carol", PrivateTopic(key)); ok {
		t.Error("outsider allowed onto a private thread")
	}
	// Reversed, non-canonical key never authorizes.
	if ok, _ := a.CanSubscribe(ctx, "adam", PrivateTopic("beth_adam")); ok {
		t.Error("non-canonical pair key accepted")
	}
}

func TestCanSubscribeInboxIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthorizer(t)

	if ok, err := a.CanSubscribe(ctx, "adam", InboxTopic("adam")); err != nil || !ok {
		t.Errorf("own inbox = %v, %v; want true", ok, err)
	}
	if ok, _ := a.CanSubscribe(ctx, "adam", InboxTopic("beth")); ok {
		t.Error("foreign inbox allowed")
	}
}

func TestCanSubscribeUnknownTopicDenied(t *testing.T) {
	a, _ := newTestAuthorizer(t)
	if ok, _ := a.CanSubscribe(context.Background(), "adam", "internal:debug"); ok {
		t.Error("unknown topic allowed")
	}
}
