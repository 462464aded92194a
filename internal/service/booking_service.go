package service

import (
	"context"
	"fmt"
	"time"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/events"
	"havenhub/internal/models"
	"havenhub/internal/quote"

	"github.com/rs/zerolog"
)

// BookingService drives the booking lifecycle against the backend.
// Local checks (authentication, interval, transition table) run
// before any network I/O; the server decision stays authoritative.
type BookingService struct {
	backend  domain.Backend
	session  domain.SessionReader
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(backend domain.Backend, session domain.SessionReader, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		backend:  backend,
		session:  session,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Quote prices the proposed interval. Pure; safe to call on every
// keystroke.
func (s *BookingService) Quote(room models.Room, start, end time.Time) quote.Quote {
	return quote.Compute(room, start, end)
}

// Submit validates locally and sends the booking request. An absent
// session fails with Unauthenticated before any round trip.
func (s *BookingService) Submit(ctx context.Context, roomID int64, start, end time.Time) (*models.Booking, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}

	if err := quote.ValidateInterval(start, end, models.MinBookingHours); err != nil {
		return nil, err
	}

	booking, err := s.backend.CreateBooking(ctx, models.BookingRequest{
		RoomID:        roomID,
		StartDateTime: start,
		EndDateTime:   end,
	})
	if err != nil {
		// The optimistic pre-check may have raced another client;
		// surface the server's reason as-is.
		s.logger.Warn().Err(err).Int64("room_id", roomID).Msg("booking submission rejected")
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, *booking)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("room_id", roomID).Msg("booking created")
	return booking, nil
}

func (s *BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.backend.Bookings(ctx)
}

func (s *BookingService) ListMine(ctx context.Context) ([]models.Booking, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}
	return s.backend.MyBookings(ctx)
}

// UpdateStatus moves a booking along the server-driven lifecycle.
// Transitions outside the table are refused locally.
func (s *BookingService) UpdateStatus(ctx context.Context, booking models.Booking, next models.BookingStatus) (*models.Booking, error) {
	if !booking.CanTransition(next) {
		return nil, fmt.Errorf("booking %d: no transition %s -> %s", booking.ID, booking.Status, next)
	}

	updated, err := s.backend.UpdateBookingStatus(ctx, booking.ID, next)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingStatusChanged, *updated)
	return updated, nil
}

func (s *BookingService) Approve(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	return s.UpdateStatus(ctx, booking, models.StatusApproved)
}

func (s *BookingService) Reject(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	return s.UpdateStatus(ctx, booking, models.StatusRejected)
}

// Cancel is offered only while the booking is pending or approved.
func (s *BookingService) Cancel(ctx context.Context, booking models.Booking) error {
	if !booking.CanCancel() {
		return fmt.Errorf("booking %d in status %s cannot be cancelled", booking.ID, booking.Status)
	}
	if err := s.backend.CancelBooking(ctx, booking.ID); err != nil {
		return err
	}

	booking.Status = models.StatusCancelled
	s.publishEvent(events.EventBookingStatusChanged, booking)
	return nil
}

// Checkout asks the backend to close the stay; early checkout carries
// a reason for staff review.
func (s *BookingService) Checkout(ctx context.Context, booking models.Booking, early bool, reason string) (*models.Booking, error) {
	if !booking.CanTransition(models.StatusCheckedOut) {
		return nil, fmt.Errorf("booking %d in status %s cannot be checked out", booking.ID, booking.Status)
	}

	updated, err := s.backend.InitiateCheckout(ctx, booking.ID, models.CheckoutRequest{
		IsEarlyCheckout: early,
		Reason:          reason,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingStatusChanged, *updated)
	return updated, nil
}

// Pay is offered only after checkout and before payment.
func (s *BookingService) Pay(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	if !booking.CanPay() {
		return nil, fmt.Errorf("booking %d is not ready for payment", booking.ID)
	}

	paid, err := s.backend.PayBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingStatusChanged, *paid)
	return paid, nil
}

func (s *BookingService) publishEvent(eventType string, booking models.Booking) {
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

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
