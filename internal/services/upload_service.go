package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reclaim-chat/internal/storage"
	reclaim_errors "reclaim-chat/pkg/errors"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UploadService hands out presigned upload slots for avatar and group
// images. The resulting public URL feeds photoURL fields; nothing else in
// the system touches object storage.
type UploadService struct {
	s3 *storage.Client
}

func NewUploadService(s3 *storage.Client) *UploadService {
	return &UploadService{s3: s3}
}

type UploadSlot struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
}

func (s *UploadService) CreateImageSlot(ctx context.Context, ownerUID, contentType string) (UploadSlot, error) {
	if s.s3 == nil {
		return UploadSlot{}, reclaim_errors.ErrUnavailable
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return UploadSlot{}, reclaim_errors.ErrInvalidInput
	}
	key := fmt.Sprintf("images/%s/%s.%s", ownerUID, uuid.NewString(), ext)
	uploadURL, err := s.s3.PresignPut(ctx, key, contentType)
	if err != nil {
		return UploadSlot{}, err
	}
	return UploadSlot{
		UploadURL: uploadURL,
		PublicURL: s.s3.PublicURL(key),
		Key:       key,
	}, nil
}
