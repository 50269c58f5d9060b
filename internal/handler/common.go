package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reclaim-chat/internal/chat"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/messages"
	"reclaim-chat/internal/services"
	"reclaim-chat/internal/transport/httpdto"
	reclaim_errors "reclaim-chat/pkg/errors"
)

var errUnauthorized = reclaim_errors.ErrUnauthorized

// respondError maps the error taxonomy onto HTTP statuses. Permission
// failures are surfaced inline; the operation was never attempted against
// the store.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reclaim_errors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "PERMISSION_DENIED"))
	case errors.Is(err, reclaim_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	case errors.Is(err, reclaim_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
	case errors.Is(err, reclaim_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "ALREADY_EXISTS"))
	case errors.Is(err, reclaim_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, reclaim_errors.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("store unavailable", "STORE_UNAVAILABLE"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}

func identityFrom(c *gin.Context) (domain.Identity, bool) {
	id, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	}
	return id, ok
}

// renderMessages hydrates author profiles for a rendered window.
func renderMessages(ctx context.Context, hyd *messages.Hydrator, msgs []domain.Message, pinned *domain.PinnedMessage) (httpdto.MessageListResponse, error) {
	profiles, err := hyd.Profiles(ctx, msgs)
	if err != nil {
		return httpdto.MessageListResponse{}, err
	}
	out := httpdto.MessageListResponse{
		Messages: msgs,
		Profiles: make(map[string]httpdto.AuthorProfile, len(profiles)),
		Pinned:   pinned,
	}
	for uid, p := range profiles {
		out.Profiles[uid] = httpdto.AuthorProfile{
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
			IsAdmin:     p.IsAdmin,
		}
	}
	return out, nil
}

// stageReply resolves the optional reply target into its denormalized
// snapshot.
func stageReply(ctx context.Context, session *chat.Session, replyToID string) (*domain.ReplyRef, error) {
	if replyToID == "" {
		return nil, nil
	}
	return session.ReplySnapshot(ctx, replyToID)
}
