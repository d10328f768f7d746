package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/jwt"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/repository"
	"base_gallery/internal/storage"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrBadIdentity = errors.New("identity token rejected")
)

type TokenIssuer interface {
	NewToken(user models.User) (string, models.TokenMeta, error)
	Parse(token string) (*jwt.Claims, error)
}

// IdentityService выдает сессии и ведет зеркало токенов.
// Ядро никогда не читает токен из зеркала: каждый Token() выпускает новый.
type IdentityService struct {
	log    *slog.Logger
	issuer TokenIssuer
	mirror repository.TokenRepository
}

func NewIdentityService(log *slog.Logger, issuer TokenIssuer, mirror repository.TokenRepository) *IdentityService {
	return &IdentityService{
		log:    log,
		issuer: issuer,
		mirror: mirror,
	}
}

// Session returns the identity of a signed-in user. An empty user id yields
// a signed-out session.
func (s *IdentityService) Session(user models.User) *Session {
	return &Session{user: user, svc: s}
}

// Verify checks an identity token from the auth provider and returns the user
// it names. Any parse failure, expiry included, is reported as ErrBadIdentity.
func (s *IdentityService) Verify(token string) (models.User, error) {
	const op = "service.IdentityService.Verify"

	claims, err := s.issuer.Parse(token)
	if err != nil {
		s.log.Warn("identity token rejected", slog.String("op", op), sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w: %w", op, ErrBadIdentity, err)
	}

	return models.User{ID: claims.Subject, Name: claims.Name}, nil
}

// Status reads the mirrored token metadata, ErrNotSignedIn when nothing is mirrored.
func (s *IdentityService) Status(ctx context.Context, userID string) (models.TokenMeta, error) {
	const op = "service.IdentityService.Status"

	if userID == "" || s.mirror == nil {
		return models.TokenMeta{}, ErrNotSignedIn
	}

	meta, err := s.mirror.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return models.TokenMeta{}, ErrNotSignedIn
		}
		return models.TokenMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	return meta, nil
}

// SignOut clears the mirror for userID.
func (s *IdentityService) SignOut(ctx context.Context, userID string) error {
	const op = "service.IdentityService.SignOut"

	if userID == "" || s.mirror == nil {
		return nil
	}

	if err := s.mirror.DeleteToken(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user signed out", slog.String("user_id", userID))

	return nil
}

func (s *IdentityService) token(ctx context.Context, user models.User) (string, error) {
	const op = "service.IdentityService.Token"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", user.ID),
	)

	token, meta, err := s.issuer.NewToken(user)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.mirror != nil {
		ttl := time.Until(meta.ExpiresAt)
		if err := s.mirror.SaveToken(ctx, meta, ttl); err != nil {
			log.Warn("failed to mirror token", sl.Err(err))
		}
	}

	return token, nil
}

// Session текущий пользователь. Реализует Identity координатора изменений.
type Session struct {
	user models.User
	svc  *IdentityService
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) User() models.User {
	return s.user
}

func (s *Session) Token(ctx context.Context) (string, error) {
	if s.UserID() == "" {
		return "", ErrNotSignedIn
	}
	return s.svc.token(ctx, s.user)
}
