package service

import (
	"context"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/events"
	"havenhub/internal/models"

	"github.com/rs/zerolog"
)

// ReceptionService covers the front-desk flows: the booking board and
// guest check-in/check-out.
type ReceptionService struct {
	backend  domain.Backend
	session  domain.SessionReader
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReceptionService(backend domain.Backend, session domain.SessionReader, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReceptionService {
	return &ReceptionService{
		backend:  backend,
		session:  session,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *ReceptionService) Bookings(ctx context.Context) ([]models.Booking, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	return s.backend.ReceptionistBookings(ctx)
}

// CheckIn admits an approved guest.
func (s *ReceptionService) CheckIn(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	if booking.Status != models.StatusApproved {
		return nil, api.ErrConflict
	}

	updated, err := s.backend.CheckInGuest(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publish(*updated)
	return updated, nil
}

// CheckOut closes the stay at the desk.
func (s *ReceptionService) CheckOut(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	if !booking.CanTransition(models.StatusCheckedOut) {
		return nil, api.ErrConflict
	}

	updated, err := s.backend.CheckOutGuest(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publish(*updated)
	return updated, nil
}

func (s *ReceptionService) require() error {
	if !s.session.Authenticated() {
		return api.ErrUnauthenticated
	}
	if !s.session.HasRole(models.RoleReceptionist) && !s.session.IsAdmin() {
		return api.ErrForbidden
	}
	return nil
}

func (s *ReceptionService) publish(booking models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		RoomNumber: booking.RoomNumber,
		Status:     string(booking.Status),
		Total:      booking.TotalAmount,
		Start:      booking.StartDateTime,
		End:        booking.EndDateTime,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingStatusChanged, payload); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

// ManagerService serves the occupancy dashboard and analytics views.
type ManagerService struct {
	backend domain.Backend
	session domain.SessionReader
	logger  *zerolog.Logger
}

func NewManagerService(backend domain.Backend, session domain.SessionReader, logger *zerolog.Logger) *ManagerService {
	return &ManagerService{
		backend: backend,
		session: session,
		logger:  logger,
	}
}

func (s *ManagerService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	return s.backend.ManagerDashboard(ctx)
}

func (s *ManagerService) Analytics(ctx context.Context) (map[string]any, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	return s.backend.ManagerAnalytics(ctx)
}

func (s *ManagerService) require() error {
	if !s.session.Authenticated() {
		return api.ErrUnauthenticated
	}
	if !s.session.HasRole(models.RoleManager) && !s.session.IsAdmin() {
		return api.ErrForbidden
	}
	return nil
}
