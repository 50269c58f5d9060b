package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

// ChatHandler serves the public chat surface.
type ChatHandler struct {
	chats    *services.ChatService
	profiles *services.ProfileService
	ops      surfaceOps
}

func NewChatHandler(chats *services.ChatService, profiles *services.ProfileService) *ChatHandler {
	h := &ChatHandler{chats: chats, profiles: profiles}
	h.ops = surfaceOps{
		hyd: chats.Hydrator(),
		resolve: func(c *gin.Context) (*chat.Session, chat.Viewer, error) {
			viewer, err := h.viewer(c)
			if err != nil {
				return nil, chat.Viewer{}, err
			}
			return chats.PublicSession(), viewer, nil
		},
		pinned: func(ctx context.Context) (*domain.PinnedMessage, error) {
			meta, err := chats.Moderation().Meta(ctx)
			if err != nil {
				return nil, err
			}
			return meta.Pinned, nil
		},
	}
	return h
}

func (h *ChatHandler) viewer(c *gin.Context) (chat.Viewer, error) {
	id, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		return chat.Viewer{}, errUnauthorized
	}
	return h.profiles.Viewer(c.Request.Context(), id)
}

func (h *ChatHandler) List(c *gin.Context)   { h.ops.List(c) }
func (h *ChatHandler) Send(c *gin.Context)   { h.ops.Send(c) }
func (h *ChatHandler) Edit(c *gin.Context)   { h.ops.Edit(c) }
func (h *ChatHandler) Delete(c *gin.Context) { h.ops.Delete(c) }
func (h *ChatHandler) React(c *gin.Context)  { h.ops.React(c) }

// Pin toggles the pinned snapshot for the given message.
func (h *ChatHandler) Pin(c *gin.Context) {
	var req httpdto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	viewer, err := h.viewer(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	msg, err := h.chats.PublicSession().Message(ctx, req.MessageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.chats.Moderation().TogglePin(ctx, viewer.Profile, msg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}
