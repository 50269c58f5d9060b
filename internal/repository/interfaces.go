package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRecord is the credential-side user row. The chat-visible profile lives
// in the document store; this row never flows through subscriptions.
type UserRecord struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	IsAnonymous  bool
	CreatedAt    time.Time
}

// JournalEntry is one private journal entry.
type JournalEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	Mood      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *UserRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error)
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
}

type JournalRepository interface {
	Create(ctx context.Context, e *JournalEntry) error
	Update(ctx context.Context, e JournalEntry) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (JournalEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]JournalEntry, error)
}
