package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

// GroupHandler serves group chat: group bookkeeping plus the shared message
// operation set scoped by the :groupId parameter.
type GroupHandler struct {
	chats    *services.ChatService
	profiles *services.ProfileService
	ops      surfaceOps
}

func NewGroupHandler(chats *services.ChatService, profiles *services.ProfileService) *GroupHandler {
	h := &GroupHandler{chats: chats, profiles: profiles}
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
			session, err := chats.GroupSession(c.Request.Context(), c.Param("groupId"))
			if err != nil {
				return nil, chat.Viewer{}, err
			}
			return session, viewer, nil
		},
	}
	return h
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req httpdto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	group, err := h.chats.CreateGroup(c.Request.Context(), id, req.Name, req.PhotoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(group))
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.chats.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(groups))
}

func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.chats.GetGroup(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(group))
}

func (h *GroupHandler) List(c *gin.Context)   { h.ops.List(c) }
func (h *GroupHandler) Send(c *gin.Context)   { h.ops.Send(c) }
func (h *GroupHandler) Edit(c *gin.Context)   { h.ops.Edit(c) }
func (h *GroupHandler) Delete(c *gin.Context) { h.ops.Delete(c) }
func (h *GroupHandler) React(c *gin.Context)  { h.ops.React(c) }
