package service

import (
	"context"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/models"

	"github.com/rs/zerolog"
)

const unreadSnapshotKey = "unread_count"

type NotificationService struct {
	backend domain.Backend
	session domain.SessionReader
	cache   domain.SnapshotCache
	logger  *zerolog.Logger
}

func NewNotificationService(backend domain.Backend, session domain.SessionReader, cache domain.SnapshotCache, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		backend: backend,
		session: session,
		cache:   cache,
		logger:  logger,
	}
}

func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}
	return s.backend.Notifications(ctx)
}

// UnreadCount returns the cached count when fresh; the poller keeps
// the cache warm between view mounts.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	if !s.session.Authenticated() {
		return 0, api.ErrUnauthenticated
	}

	var cached int64
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, unreadSnapshotKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	count, err := s.backend.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	s.storeCount(ctx, count)
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	if !s.session.Authenticated() {
		return api.ErrUnauthenticated
	}
	if err := s.backend.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	s.dropCount(ctx)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if !s.session.Authenticated() {
		return api.ErrUnauthenticated
	}
	if err := s.backend.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	s.storeCount(ctx, 0)
	return nil
}

func (s *NotificationService) storeCount(ctx context.Context, count int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, unreadSnapshotKey, count); err != nil {
		s.logger.Warn().Err(err).Msg("unread count cache write failed")
	}
}

func (s *NotificationService) dropCount(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadSnapshotKey); err != nil {
		s.logger.Warn().Err(err).Msg("unread count invalidation failed")
	}
}
