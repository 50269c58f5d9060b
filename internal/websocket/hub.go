package websocket

import (
	"context"
	"sync"
)

// subscriptionRequest asks the hub to attach or detach a client on a topic.
type subscriptionRequest struct {
	client    *Client
	topic     string
	subscribe bool
}

// Hub tracks connected clients and which topic each one listens on. Topic
// lifecycle hooks let the bridge start a store subscription when the first
// client arrives and tear it down when the last one leaves.
type Hub struct {
	mu sync.RWMutex

	clients map[string]*Client
	topics  map[string]map[*Client]struct{}

	register     chan *Client
	unregister   chan *Client
	subscription chan subscriptionRequest

	// onActive fires when a topic gains its first subscriber, onIdle when it
	// loses its last. Both run on the hub loop goroutine.
	onActive func(topic string)
	onIdle   func(topic string)
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		topics:       make(map[string]map[*Client]struct{}),
		register:     make(chan *Client, 256),
		unregister:   make(chan *Client, 256),
		subscription: make(chan subscriptionRequest, 512),
	}
}

// SetTopicHooks must be called before Run.
func (h *Hub) SetTopicHooks(onActive, onIdle func(topic string)) {
	h.onActive = onActive
	h.onIdle = onIdle
}

// Run drives the hub's event loop until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.dropClient(client)
		case req := <-h.subscription:
			if req.subscribe {
				h.attach(req.client, req.topic)
			} else {
				h.detach(req.client, req.topic)
			}
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) Subscribe(client *Client, topic string) {
	h.subscription <- subscriptionRequest{client: client, topic: topic, subscribe: true}
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.subscription <- subscriptionRequest{client: client, topic: topic, subscribe: false}
}

// Broadcast delivers payload to every client attached to the topic. Slow
// clients get the frame dropped rather than stalling the feed.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	for c := range h.topics[topic] {
		c.Enqueue(payload)
	}
	h.mu.RUnlock()
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) attach(client *Client, topic string) {
	h.mu.Lock()
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Client]struct{})
		h.topics[topic] = set
	}
	set[client] = struct{}{}
	client.track(topic)
	h.mu.Unlock()

	if !ok && h.onActive != nil {
		h.onActive(topic)
	}
}

func (h *Hub) detach(client *Client, topic string) {
	h.mu.Lock()
	emptied := false
	if set, ok := h.topics[topic]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.topics, topic)
			emptied = true
		}
	}
	client.untrack(topic)
	h.mu.Unlock()

	if emptied && h.onIdle != nil {
		h.onIdle(topic)
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	var emptied []string
	for topic := range client.topics {
		if set, ok := h.topics[topic]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.topics, topic)
				emptied = append(emptied, topic)
			}
		}
	}
	delete(h.clients, client.ID)
	close(client.send)
	h.mu.Unlock()

	if h.onIdle != nil {
		for _, topic := range emptied {
			h.onIdle(topic)
		}
	}
}
