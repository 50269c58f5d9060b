package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), id.UID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(profile))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req httpdto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	if err := h.profiles.Update(c.Request.Context(), id.UID, req.DisplayName, req.PhotoURL); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (h *ProfileHandler) Block(c *gin.Context) {
	h.updateBlock(c, h.profiles.Block)
}

func (h *ProfileHandler) Unblock(c *gin.Context) {
	h.updateBlock(c, h.profiles.Unblock)
}

func (h *ProfileHandler) updateBlock(c *gin.Context, run func(ctx context.Context, owner, target string) error) {
	var req httpdto.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	if err := run(c.Request.Context(), id.UID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (h *ProfileHandler) ResetCleanDate(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	if err := h.profiles.ResetCleanDate(c.Request.Context(), id.UID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}
