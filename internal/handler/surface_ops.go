package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/messages"
	"reclaim-chat/internal/transport/httpdto"
)

// surfaceOps is the message operation set shared by all three chat surfaces.
// Each handler supplies a resolver that builds the session and viewer for
// the request; everything past that point is identical across public, group
// and private chat.
type surfaceOps struct {
	hyd     *messages.Hydrator
	resolve func(c *gin.Context) (*chat.Session, chat.Viewer, error)
	// pinned supplies the pinned snapshot for surfaces that have one.
	pinned func(ctx context.Context) (*domain.PinnedMessage, error)
}

func (o *surfaceOps) session(c *gin.Context) (*chat.Session, chat.Viewer, bool) {
	session, viewer, err := o.resolve(c)
	if err != nil {
		respondError(c, err)
		return nil, chat.Viewer{}, false
	}
	return session, viewer, true
}

func (o *surfaceOps) List(c *gin.Context) {
	session, viewer, ok := o.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	msgs, err := session.Messages(ctx, viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	var pinned *domain.PinnedMessage
	if o.pinned != nil {
		if pinned, err = o.pinned(ctx); err != nil {
			respondError(c, err)
			return
		}
	}
	resp, err := renderMessages(ctx, o.hyd, msgs, pinned)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (o *surfaceOps) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	session, viewer, ok := o.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	replyTo, err := stageReply(ctx, session, req.ReplyToMessageID)
	if err != nil {
		respondError(c, err)
		return
	}
	msgID, err := session.Send(ctx, viewer, req.Text, replyTo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{MessageID: msgID}))
}

func (o *surfaceOps) Edit(c *gin.Context) {
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	session, viewer, ok := o.session(c)
	if !ok {
		return
	}
	if err := session.Edit(c.Request.Context(), viewer, c.Param("id"), req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (o *surfaceOps) Delete(c *gin.Context) {
	session, viewer, ok := o.session(c)
	if !ok {
		return
	}
	if err := session.Delete(c.Request.Context(), viewer, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

// React is fire-and-forget: the toggle is accepted and any store failure is
// logged, not returned.
func (o *surfaceOps) React(c *gin.Context) {
	var req httpdto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	session, viewer, ok := o.session(c)
	if !ok {
		return
	}
	session.ToggleReaction(c.Request.Context(), viewer, c.Param("id"), req.Emoji)
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(gin.H{}))
}
