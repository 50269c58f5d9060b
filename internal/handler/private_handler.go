package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

// PrivateHandler serves one-to-one chat: the conversation directory plus the
// shared message operation set scoped by the :partnerId parameter. Resolving
// a session clears the caller's unread flag for the thread.
type PrivateHandler struct {
	chats    *services.ChatService
	profiles *services.ProfileService
	ops      surfaceOps
}

func NewPrivateHandler(chats *services.ChatService, profiles *services.ProfileService) *PrivateHandler {
	h := &PrivateHandler{chats: chats, profiles: profiles}
	h.ops = surfaceOps{
		hyd: chats.Hydrator(),
		resolve: func(c *gin.Context) (*chat.Session, chat.Viewer, error) {
			id, ok := services.IdentityFromContext(c.Request.Context())
			if !ok {
				return nil, chat.Viewer{}, errUnauthorized
			}
			viewer, err := profiles.Viewer(c.Request.Context(), id)
			if err != nil {
				return nil, chat.Viewer{}, err
			}
			session, err := chats.PrivateSession(c.Request.Context(), id, c.Param("partnerId"))
			if err != nil {
				return nil, chat.Viewer{}, err
			}
			return session, viewer, nil
		},
	}
	return h
}

// Conversations lists the caller's conversation pointers, most recent first.
func (h *PrivateHandler) Conversations(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	pointers, err := h.chats.Directory().List(c.Request.Context(), id.UID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pointers))
}

// Unread is the app-wide unread badge.
func (h *PrivateHandler) Unread(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	has, err := h.chats.Directory().HasUnread(c.Request.Context(), id.UID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadResponse{HasUnread: has}))
}

// DeleteConversation removes only the caller's pointer; the partner's copy
// and the message history stay.
func (h *PrivateHandler) DeleteConversation(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	if err := h.chats.Directory().Delete(c.Request.Context(), id.UID, c.Param("partnerId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (h *PrivateHandler) List(c *gin.Context)   { h.ops.List(c) }
func (h *PrivateHandler) Send(c *gin.Context)   { h.ops.Send(c) }
func (h *PrivateHandler) Edit(c *gin.Context)   { h.ops.Edit(c) }
func (h *PrivateHandler) Delete(c *gin.Context) { h.ops.Delete(c) }
func (h *PrivateHandler) React(c *gin.Context)  { h.ops.React(c) }
