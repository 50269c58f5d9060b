package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// ImageSlot hands the client a presigned PUT URL. The client uploads the
// image itself and then stores the returned public URL on its profile or
// group.
func (h *UploadHandler) ImageSlot(c *gin.Context) {
	var req httpdto.UploadSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	id, ok := identityFrom(c)
	if !ok {
		return
	}
	slot, err := h.uploads.CreateImageSlot(c.Request.Context(), id.UID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(slot))
}
