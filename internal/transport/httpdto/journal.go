package httpdto

import "time"

type JournalEntryRequest struct {
	Title string `json:"title"`
	Body  string `json:"body" binding:"required"`
	Mood  string `json:"mood"`
}

type JournalEntryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	PhotoURL    string `json:"photo_url"`
}

type BlockRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type UploadSlotRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}
