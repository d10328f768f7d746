package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/logger/sl"
)

const (
	msgAuthFailed = "Authentication failed. Please sign in again."
	msgNoID       = "No base ID provided"
)

// Identity текущая сессия пользователя. Token каждый раз запрашивает свежий токен у провайдера.
type Identity interface {
	UserID() string
	Token(ctx context.Context) (string, error)
}

type Mutator interface {
	Create(ctx context.Context, payload models.Payload, token string) (*models.Item, error)
	Update(ctx context.Context, id models.ItemID, payload models.Payload, token string) (*models.Item, error)
	Remove(ctx context.Context, id models.ItemID, token string) error
}

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Notifier канал уведомлений пользователя (аналог toast)
type Notifier interface {
	Success(message string)
	Error(message string)
}

type MutationService struct {
	log     *slog.Logger
	mutator Mutator
}

func NewMutationService(log *slog.Logger, mutator Mutator) *MutationService {
	return &MutationService{
		log:     log,
		mutator: mutator,
	}
}

// SubmitCreate публикует новую базу. Сетевые ошибки дополнительно возвращаются
// вызывающему, чтобы форма могла сохранить введенные данные.
func (s *MutationService) SubmitCreate(ctx context.Context, who Identity, list Invalidator, notify Notifier, payload models.Payload) (bool, error) {
	const op = "service.MutationService.SubmitCreate"

	log := s.log.With(slog.String("op", op))

	token, ok := s.freshToken(ctx, log, who, notify, "You must be signed in to upload a base")
	if !ok {
		return false, nil
	}

	if payload.OwnerID == "" {
		payload.OwnerID = who.UserID()
	}

	log.Info("creating base", slog.String("title", payload.Title))

	item, err := s.mutator.Create(ctx, payload, token)
	if err != nil {
		log.Error("failed to create base", sl.Err(err))
		notify.Error(apperror.Message(err, "Failed to upload base"))

		if errors.Is(err, apperror.ErrNetwork) {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	log.Info("base created", slog.String("id", item.ID.String()))
	notify.Success("Base uploaded successfully")
	s.refresh(ctx, log, list)

	return true, nil
}

// SubmitUpdate обновляет базу. Право владения проверено вызывающим.
func (s *MutationService) SubmitUpdate(ctx context.Context, who Identity, list Invalidator, notify Notifier, id models.ItemID, payload models.Payload) (bool, error) {
	const op = "service.MutationService.SubmitUpdate"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id.String()),
	)

	token, ok := s.freshToken(ctx, log, who, notify, "You must be signed in to update a base")
	if !ok {
		return false, nil
	}

	if id == "" {
		notify.Error(msgNoID)
		return false, nil
	}

	log.Info("updating base")

	if _, err := s.mutator.Update(ctx, id, payload, token); err != nil {
		log.Error("failed to update base", sl.Err(err))
		notify.Error(apperror.Message(err, "Failed to update base"))

		if errors.Is(err, apperror.ErrNetwork) {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	log.Info("base updated")
	notify.Success("Base updated successfully")
	s.refresh(ctx, log, list)

	return true, nil
}

// SubmitDelete удаляет базу. Ошибки только уведомляются.
func (s *MutationService) SubmitDelete(ctx context.Context, who Identity, list Invalidator, notify Notifier, id models.ItemID) bool {
	const op = "service.MutationService.SubmitDelete"

	log := s.log.With(
		slog.String("op", op),
		slog.String("id", id.String()),
	)

	token, ok := s.freshToken(ctx, log, who, notify, "You must be signed in to delete a base")
	if !ok {
		return false
	}

	if id == "" {
		notify.Error(msgNoID)
		return false
	}

	log.Info("deleting base")

	if err := s.mutator.Remove(ctx, id, token); err != nil {
		log.Error("failed to delete base", sl.Err(err))
		notify.Error(apperror.Message(err, "Failed to delete base"))
		return false
	}

	log.Info("base deleted")
	notify.Success("Base deleted successfully")
	s.refresh(ctx, log, list)

	return true
}

func (s *MutationService) freshToken(ctx context.Context, log *slog.Logger, who Identity, notify Notifier, signedOutMsg string) (string, bool) {
	if who == nil || who.UserID() == "" {
		log.Warn("mutation rejected: not signed in")
		notify.Error(signedOutMsg)
		return "", false
	}

	token, err := who.Token(ctx)
	if err != nil || token == "" {
		if err != nil {
			log.Error("failed to obtain identity token", sl.Err(err))
		}
		notify.Error(msgAuthFailed)
		return "", false
	}

	return token, true
}

// refresh signals the list to re-enter its initial load. A failed reload is
// already reflected in the list's error state.
func (s *MutationService) refresh(ctx context.Context, log *slog.Logger, list Invalidator) {
	if list == nil {
		return
	}

	if err := list.Invalidate(ctx); err != nil {
		log.Warn("list refresh after mutation failed", sl.Err(err))
	}
}
