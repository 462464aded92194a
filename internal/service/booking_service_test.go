package service

import (
	"context"
	"testing"
	"time"

	"havenhub/internal/api"
	"havenhub/internal/events"
	"havenhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingService_SubmitWithoutSessionMakesNoCall(t *testing.T) {
	backend := new(mockBackend)
	bus := &recordingBus{}
	svc := NewBookingService(backend, anonymousSession(), bus, testLogger())

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	_, err := svc.Submit(context.Background(), 1, start, start.Add(24*time.Hour))

	require.ErrorIs(t, err, api.ErrUnauthenticated)
	backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	assert.Empty(t, bus.published())
}

func TestBookingService_SubmitInvalidIntervalMakesNoCall(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), nil, testLogger())

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	_, err := svc.Submit(context.Background(), 1, start, start.Add(-time.Hour))

	require.Error(t, err)
	backend.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingService_SubmitSuccess(t *testing.T) {
	backend := new(mockBackend)
	bus := &recordingBus{}
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), bus, testLogger())

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	created := &models.Booking{ID: 7, RoomID: 3, Status: models.StatusPending, TotalAmount: 240}

	backend.On("CreateBooking", mock.Anything, models.BookingRequest{
		RoomID:        3,
		StartDateTime: start,
		EndDateTime:   end,
	}).Return(created, nil)

	booking, err := svc.Submit(context.Background(), 3, start, end)

	require.NoError(t, err)
	assert.Equal(t, int64(7), booking.ID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, []string{events.EventBookingCreated}, bus.published())
	backend.AssertExpectations(t)
}

func TestBookingService_SubmitConflictIsFinal(t *testing.T) {
	// Гонка с другим клиентом: сервер отвечает 409, решение сервера
	// возвращается как есть.
	backend := new(mockBackend)
	bus := &recordingBus{}
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), bus, testLogger())

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	backend.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, api.ErrConflict)

	_, err := svc.Submit(context.Background(), 3, start, start.Add(2*time.Hour))

	require.ErrorIs(t, err, api.ErrConflict)
	assert.Empty(t, bus.published())
}

func TestBookingService_RejectThenCancelNotOffered(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleAdmin), nil, testLogger())

	pending := models.Booking{ID: 5, Status: models.StatusPending}
	rejected := &models.Booking{ID: 5, Status: models.StatusRejected}
	backend.On("UpdateBookingStatus", mock.Anything, int64(5), models.StatusRejected).Return(rejected, nil)

	updated, err := svc.Reject(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)

	err = svc.Cancel(context.Background(), *updated)
	require.Error(t, err)
	backend.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestBookingService_UpdateStatusRefusesUndefinedTransition(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleAdmin), nil, testLogger())

	completed := models.Booking{ID: 9, Status: models.StatusCompleted}
	_, err := svc.UpdateStatus(context.Background(), completed, models.StatusApproved)

	require.Error(t, err)
	backend.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CancelActiveBooking(t *testing.T) {
	backend := new(mockBackend)
	bus := &recordingBus{}
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), bus, testLogger())

	backend.On("CancelBooking", mock.Anything, int64(11)).Return(nil)

	err := svc.Cancel(context.Background(), models.Booking{ID: 11, Status: models.StatusApproved})

	require.NoError(t, err)
	assert.Equal(t, []string{events.EventBookingStatusChanged}, bus.published())
	backend.AssertExpectations(t)
}

func TestBookingService_CheckoutEarlyCarriesReason(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), nil, testLogger())

	checkedOut := &models.Booking{ID: 4, Status: models.StatusCheckedOut, EarlyCheckoutRequested: true}
	backend.On("InitiateCheckout", mock.Anything, int64(4), models.CheckoutRequest{
		IsEarlyCheckout: true,
		Reason:          "change of plans",
	}).Return(checkedOut, nil)

	updated, err := svc.Checkout(context.Background(), models.Booking{ID: 4, Status: models.StatusApproved}, true, "change of plans")

	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, updated.Status)
	backend.AssertExpectations(t)
}

func TestBookingService_CheckoutOnlyFromApproved(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), nil, testLogger())

	for _, status := range []models.BookingStatus{
		models.StatusPending,
		models.StatusCheckedOut,
		models.StatusCompleted,
		models.StatusCancelled,
	} {
		_, err := svc.Checkout(context.Background(), models.Booking{ID: 4, Status: status}, false, "")
		require.Error(t, err, "status %s", status)
	}
	backend.AssertNotCalled(t, "InitiateCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_PayOnlyAfterCheckout(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, sessionWithRoles(models.RoleCustomer), nil, testLogger())

	_, err := svc.Pay(context.Background(), models.Booking{ID: 2, Status: models.StatusApproved})
	require.Error(t, err)

	_, err = svc.Pay(context.Background(), models.Booking{ID: 2, Status: models.StatusCheckedOut, IsPaid: true})
	require.Error(t, err)
	backend.AssertNotCalled(t, "PayBooking", mock.Anything, mock.Anything)

	paid := &models.Booking{ID: 2, Status: models.StatusCompleted, IsPaid: true}
	backend.On("PayBooking", mock.Anything, int64(2)).Return(paid, nil)

	result, err := svc.Pay(context.Background(), models.Booking{ID: 2, Status: models.StatusCheckedOut})
	require.NoError(t, err)
	assert.True(t, result.IsPaid)
}

func TestBookingService_ListMineRequiresSession(t *testing.T) {
	backend := new(mockBackend)
	svc := NewBookingService(backend, anonymousSession(), nil, testLogger())

	_, err := svc.ListMine(context.Background())

	require.ErrorIs(t, err, api.ErrUnauthenticated)
	backend.AssertNotCalled(t, "MyBookings", mock.Anything)
}

func TestBookingService_QuoteMatchesEngine(t *testing.T) {
	svc := NewBookingService(new(mockBackend), anonymousSession(), nil, testLogger())

	room := models.Room{ID: 1, Price: 120}
	start := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	q := svc.Quote(room, start, start.Add(48*time.Hour))

	require.True(t, q.IsValid)
	assert.Equal(t, int64(48), q.DurationUnits)
	assert.InDelta(t, 240.0, q.TotalPrice, 0.001)
}
