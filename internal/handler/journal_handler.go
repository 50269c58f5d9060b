package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reclaim-chat/internal/repository"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
)

type JournalHandler struct {
	journal *services.JournalService
}

func NewJournalHandler(journal *services.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

func journalResponse(e repository.JournalEntry) httpdto.JournalEntryResponse {
	return httpdto.JournalEntryResponse{
		ID:        e.ID.String(),
		Title:     e.Title,
		Body:      e.Body,
		Mood:      e.Mood,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (h *JournalHandler) ownerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := identityFrom(c)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(id.UID)
	if err != nil {
		// Guest identities are not backed by a database row.
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("journal requires a registered account", "PERMISSION_DENIED"))
		return uuid.Nil, false
	}
	return userID, true
}

func (h *JournalHandler) Create(c *gin.Context) {
	var req httpdto.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}
	entry, err := h.journal.Create(c.Request.Context(), userID, services.JournalInput{
		Title: req.Title,
		Body:  req.Body,
		Mood:  req.Mood,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(journalResponse(entry)))
}

func (h *JournalHandler) Update(c *gin.Context) {
	var req httpdto.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid entry id", "INVALID_REQUEST"))
		return
	}
	entry, err := h.journal.Update(c.Request.Context(), userID, entryID, services.JournalInput{
		Title: req.Title,
		Body:  req.Body,
		Mood:  req.Mood,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(journalResponse(entry)))
}

func (h *JournalHandler) Delete(c *gin.Context) {
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid entry id", "INVALID_REQUEST"))
		return
	}
	if err := h.journal.Delete(c.Request.Context(), userID, entryID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{}))
}

func (h *JournalHandler) List(c *gin.Context) {
	userID, ok := h.ownerID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.journal.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]httpdto.JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, journalResponse(e))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
