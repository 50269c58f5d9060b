package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
	"reclaim-chat/pkg/logger"
)

// clientCommand is the only inbound frame shape. All writes go through the
// HTTP API; the socket is a read path plus subscription control.
type clientCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type Handler struct {
	auth  *services.AuthService
	hub   *Hub
	authz *Authorizer
	log   *logger.Logger
}

func NewHandler(auth *services.AuthService, hub *Hub, authz *Authorizer, log *logger.Logger) *Handler {
	return &Handler{auth: auth, hub: hub, authz: authz, log: log}
}

func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	identity, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, identity.UID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		var cmd clientCommand
		if err := json.Unmarshal(payload, &cmd); err != nil || cmd.Topic == "" {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			ok, err := h.authz.CanSubscribe(c.Request.Context(), identity.UID, cmd.Topic)
			if err != nil {
				h.log.Errorf("ws: authorize %s for %s: %v", cmd.Topic, identity.UID, err)
				continue
			}
			if ok {
				h.hub.Subscribe(client, cmd.Topic)
			}
		case "unsubscribe":
			h.hub.Unsubscribe(client, cmd.Topic)
		}
	}

	h.hub.Unregister(client)
}
