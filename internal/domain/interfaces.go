package domain

import (
	"context"
	"io"
	"time"

	"havenhub/internal/models"
)

// Backend is the REST surface of the hotel management server as seen
// by the client. Implemented by api.Client, mocked in service tests.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	CreateStaffUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)

	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, req models.ProfileUpdate) (*models.User, error)
	UploadProfileImage(ctx context.Context, filename string, data io.Reader) (*models.User, error)

	Rooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, room models.Room) (*models.Room, error)
	UpdateRoom(ctx context.Context, room models.Room) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	RoomAvailability(ctx context.Context, roomID int64, start, end time.Time) (bool, error)

	Bookings(ctx context.Context) ([]models.Booking, error)
	MyBookings(ctx context.Context) ([]models.Booking, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) (*models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
	InitiateCheckout(ctx context.Context, id int64, req models.CheckoutRequest) (*models.Booking, error)
	PayBooking(ctx context.Context, id int64) (*models.Booking, error)

	Notifications(ctx context.Context) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error

	CleanerRooms(ctx context.Context) ([]models.Room, error)
	CleanerSetRoomStatus(ctx context.Context, id int64, status models.RoomStatus) (*models.Room, error)
	ReceptionistBookings(ctx context.Context) ([]models.Booking, error)
	CheckInGuest(ctx context.Context, bookingID int64) (*models.Booking, error)
	CheckOutGuest(ctx context.Context, bookingID int64) (*models.Booking, error)
	ReceptionistUsers(ctx context.Context) ([]models.User, error)
	ManagerDashboard(ctx context.Context) (*models.DashboardStats, error)
	ManagerAnalytics(ctx context.Context) (map[string]any, error)
}

// CredentialStore persists the token and identity between runs.
type CredentialStore interface {
	Save(ctx context.Context, token string, user models.User) error
	Load(ctx context.Context) (string, *models.User, error)
	Clear(ctx context.Context) error
}

// SnapshotCache holds short-lived read copies of backend collections.
type SnapshotCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, val any) error
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SessionReader is the read-only session view handed to services.
type SessionReader interface {
	Authenticated() bool
	CurrentUser() *models.User
	HasRole(role models.Role) bool
	IsAdmin() bool
}
