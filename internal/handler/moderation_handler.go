package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/moderation"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

// ModerationHandler exposes the admin operation set. Capability checks live
// in the moderation service, not here.
type ModerationHandler struct {
	mod      *moderation.Service
	profiles *services.ProfileService
}

func NewModerationHandler(mod *moderation.Service, profiles *services.ProfileService) *ModerationHandler {
	return &ModerationHandler{mod: mod, profiles: profiles}
}

func (h *ModerationHandler) toggle(c *gin.Context, run func(caller, target string) error) {
	var req httpdto.ModerationTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	if err := run(id.UID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (h *ModerationHandler) ToggleMute(c *gin.Context) {
	h.toggle(c, func(caller, target string) error {
		profile, err := h.profiles.Get(c.Request.Context(), caller)
		if err != nil {
			return err
		}
		return h.mod.ToggleMute(c.Request.Context(), profile, target)
	})
}

func (h *ModerationHandler) ToggleBan(c *gin.Context) {
	h.toggle(c, func(caller, target string) error {
		profile, err := h.profiles.Get(c.Request.Context(), caller)
		if err != nil {
			return err
		}
		return h.mod.ToggleBan(c.Request.Context(), profile, target)
	})
}

func (h *ModerationHandler) ToggleAdmin(c *gin.Context) {
	h.toggle(c, func(caller, target string) error {
		profile, err := h.profiles.Get(c.Request.Context(), caller)
		if err != nil {
			return err
		}
		return h.mod.ToggleAdminRole(c.Request.Context(), profile, target)
	})
}
