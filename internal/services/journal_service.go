package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reclaim-chat/internal/repository"
	reclaim_errors "reclaim-chat/pkg/errors"
)

// JournalService is the private journal: owner-only CRUD, save failures
// surfaced to the user (critical, not best-effort).
type JournalService struct {
	repo repository.JournalRepository
}

func NewJournalService(repo repository.JournalRepository) *JournalService {
	return &JournalService{repo: repo}
}

type JournalInput struct {
	Title string
	Body  string
	Mood  string
}

func (s *JournalService) Create(ctx context.Context, userID uuid.UUID, in JournalInput) (repository.JournalEntry, error) {
	if strings.TrimSpace(in.Body) == "" {
		return repository.JournalEntry{}, reclaim_errors.ErrInvalidInput
	}
	now := time.Now().UTC()
	entry := repository.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Mood:      in.Mood,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return repository.JournalEntry{}, err
	}
	return entry, nil
}

func (s *JournalService) Update(ctx context.Context, userID, entryID uuid.UUID, in JournalInput) (repository.JournalEntry, error) {
	if strings.TrimSpace(in.Body) == "" {
		return repository.JournalEntry{}, reclaim_errors.ErrInvalidInput
	}
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return repository.JournalEntry{}, err
	}
	if entry.UserID != userID {
		return repository.JournalEntry{}, reclaim_errors.ErrPermissionDenied
	}
	entry.Title = strings.TrimSpace(in.Title)
	entry.Body = in.Body
	entry.Mood = in.Mood
	entry.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, entry); err != nil {
		return repository.JournalEntry{}, err
	}
	return entry, nil
}

func (s *JournalService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	return s.repo.Delete(ctx, entryID, userID)
}

func (s *JournalService) List(ctx context.Context, userID uuid.UUID, limit int) ([]repository.JournalEntry, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}
