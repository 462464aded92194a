package service

import (
	"context"
	"errors"
	"time"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/models"
	"havenhub/internal/quote"

	"github.com/rs/zerolog"
)

// RoomService exposes the room catalogue plus the advisory
// bookability pre-check.
type RoomService struct {
	backend domain.Backend
	session domain.SessionReader
	cache   domain.SnapshotCache
	logger  *zerolog.Logger
}

func NewRoomService(backend domain.Backend, session domain.SessionReader, cache domain.SnapshotCache, logger *zerolog.Logger) *RoomService {
	return &RoomService{
		backend: backend,
		session: session,
		cache:   cache,
		logger:  logger,
	}
}

const roomsSnapshotKey = "rooms"

// List returns the room catalogue, served from the snapshot cache
// when fresh. Staleness is acceptable here; mutations invalidate.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, roomsSnapshotKey, &rooms); err == nil && hit {
			return rooms, nil
		}
	}

	rooms, err := s.backend.Rooms(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, roomsSnapshotKey, rooms); err != nil {
			s.logger.Warn().Err(err).Msg("room snapshot cache write failed")
		}
	}
	return rooms, nil
}

// IsBookable is a best-effort pre-check: room AVAILABLE and no active
// booking. Staff see the full booking list; customers fall back to
// the availability probe. The server decision at submission remains
// final either way.
func (s *RoomService) IsBookable(ctx context.Context, room models.Room, start, end time.Time) bool {
	if room.Status != models.RoomAvailable {
		return false
	}

	bookings, err := s.backend.Bookings(ctx)
	if err == nil {
		return quote.IsRoomBookable(room, bookings)
	}
	if !errors.Is(err, api.ErrForbidden) {
		s.logger.Warn().Err(err).Int64("room_id", room.ID).Msg("booking list unavailable for pre-check")
		return true // advisory only; let the server decide
	}

	available, err := s.backend.RoomAvailability(ctx, room.ID, start, end)
	if err != nil {
		s.logger.Warn().Err(err).Int64("room_id", room.ID).Msg("availability probe failed")
		return true
	}
	return available
}

// Create adds a room (admin only; enforced locally before the call).
func (s *RoomService) Create(ctx context.Context, room models.Room) (*models.Room, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if room.Price <= 0 {
		return nil, errors.New("room price must be positive")
	}

	created, err := s.backend.CreateRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *RoomService) Update(ctx context.Context, room models.Room) (*models.Room, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if room.Price <= 0 {
		return nil, errors.New("room price must be positive")
	}

	updated, err := s.backend.UpdateRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *RoomService) Delete(ctx context.Context, id int64) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.backend.DeleteRoom(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// AssignedRooms lists the rooms a cleaner works with.
func (s *RoomService) AssignedRooms(ctx context.Context) ([]models.Room, error) {
	if !s.session.HasRole(models.RoleCleaner) && !s.session.IsAdmin() {
		return nil, api.ErrForbidden
	}
	return s.backend.CleanerRooms(ctx)
}

// SetCleaningStatus flips a room between AVAILABLE and MAINTENANCE.
func (s *RoomService) SetCleaningStatus(ctx context.Context, id int64, status models.RoomStatus) (*models.Room, error) {
	if !s.session.HasRole(models.RoleCleaner) && !s.session.IsAdmin() {
		return nil, api.ErrForbidden
	}

	room, err := s.backend.CleanerSetRoomStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return room, nil
}

func (s *RoomService) requireAdmin() error {
	if !s.session.Authenticated() {
		return api.ErrUnauthenticated
	}
	if !s.session.IsAdmin() {
		return api.ErrForbidden
	}
	return nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, roomsSnapshotKey); err != nil {
		s.logger.Warn().Err(err).Msg("room snapshot invalidation failed")
	}
}
