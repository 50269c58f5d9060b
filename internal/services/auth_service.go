package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"reclaim-chat/config"
	"reclaim-chat/internal/domain"
	"reclaim-chat/internal/repository"
	"reclaim-chat/internal/store"
	reclaim_errors "reclaim-chat/pkg/errors"
	"reclaim-chat/pkg/logger"
)

// AuthService mints and verifies the identities the chat core consumes.
// Credentials live in postgres; registration also bootstraps the
// chat-visible profile document in the store.
type AuthService struct {
	users     repository.UserRepository
	db        store.Store
	log       *logger.Logger
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(users repository.UserRepository, db store.Store, log *logger.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		users:     users,
		db:        db,
		log:       log,
		jwtSecret: []byte(cfg.JWT.Secret),
		accessTTL: cfg.JWT.AccessTTL,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	User        domain.Identity `json:"user"`
}

type AccessClaims struct {
	DisplayName string `json:"name"`
	PhotoURL    string `json:"pic,omitempty"`
	Anonymous   bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Email == "" || len(in.Password) < 8 || in.DisplayName == "" {
		return AuthResponse{}, reclaim_errors.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}
	rec := &repository.UserRecord{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, rec); err != nil {
		return AuthResponse{}, err
	}
	s.bootstrapProfile(ctx, rec)
	return s.issue(rec)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	rec, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(in.Email)))
	if errors.Is(err, reclaim_errors.ErrNotFound) {
		return AuthResponse{}, reclaim_errors.ErrUnauthorized
	}
	if err != nil {
		return AuthResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(in.Password)) != nil {
		return AuthResponse{}, reclaim_errors.ErrUnauthorized
	}
	return s.issue(&rec)
}

// Guest creates an anonymous identity. Guests chat under a throwaway display
// name and can upgrade later by registering.
func (s *AuthService) Guest(ctx context.Context, displayName string) (AuthResponse, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Anonymous"
	}
	rec := &repository.UserRecord{
		ID:          uuid.New(),
		DisplayName: displayName,
		IsAnonymous: true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.Create(ctx, rec); err != nil {
		return AuthResponse{}, err
	}
	s.bootstrapProfile(ctx, rec)
	return s.issue(rec)
}

// bootstrapProfile writes the chat-visible users/{uid} document. Best-effort:
// a failure here leaves a profile the hydrator resolves as zero until the
// user edits it.
func (s *AuthService) bootstrapProfile(ctx context.Context, rec *repository.UserRecord) {
	err := s.db.Apply(ctx, domain.ColUsers, rec.ID.String(),
		store.Set("displayName", rec.DisplayName),
		store.Set("photoURL", rec.PhotoURL),
		store.Set("email", rec.Email),
		store.Set("isAdmin", false),
		store.Set("isMuted", false),
		store.ServerTime("cleanSince"),
	)
	if err != nil {
		s.log.Errorf("auth: profile bootstrap for %s: %v", rec.ID, err)
	}
}

func (s *AuthService) issue(rec *repository.UserRecord) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		DisplayName: rec.DisplayName,
		PhotoURL:    rec.PhotoURL,
		Anonymous:   rec.IsAnonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User: domain.Identity{
			UID:         rec.ID.String(),
			DisplayName: rec.DisplayName,
			PhotoURL:    rec.PhotoURL,
			Anonymous:   rec.IsAnonymous,
		},
	}, nil
}

// ParseAccessToken verifies a bearer token and returns the identity it
// carries.
func (s *AuthService) ParseAccessToken(token string) (domain.Identity, error) {
	var claims AccessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, reclaim_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return domain.Identity{}, reclaim_errors.ErrUnauthorized
	}
	return domain.Identity{
		UID:         claims.Subject,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
		Anonymous:   claims.Anonymous,
	}, nil
}
