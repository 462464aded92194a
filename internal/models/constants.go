package models

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleCleaner      Role = "CLEANER"
	RoleCustomer     Role = "CUSTOMER"
)

type RoomType string

const (
	RoomSingle RoomType = "SINGLE"
	RoomDouble RoomType = "DOUBLE"
	RoomSuite  RoomType = "SUITE"
	RoomDeluxe RoomType = "DELUXE"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusApproved   BookingStatus = "APPROVED"
	StatusRejected   BookingStatus = "REJECTED"
	StatusCancelled  BookingStatus = "CANCELLED"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCheckedOut BookingStatus = "CHECKED_OUT"
)

type NotificationType string

const (
	NotifyBookingCreated  NotificationType = "BOOKING_CREATED"
	NotifyBookingApproved NotificationType = "BOOKING_APPROVED"
	NotifyBookingRejected NotificationType = "BOOKING_REJECTED"
	NotifyBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotifySystem          NotificationType = "SYSTEM"
)

const (
	// DefaultPollInterval период фонового опроса непрочитанных уведомлений
	DefaultPollInterval = 30 // секунды

	// DefaultRequestTimeout таймаут исходящих запросов к бэкенду
	DefaultRequestTimeout = 10 // секунды

	// SnapshotCacheTTL время жизни кэша списков комнат и счетчиков
	SnapshotCacheTTL = 60 // секунды

	// MinBookingHours минимальная длительность бронирования
	MinBookingHours = 1

	// HoursPerDay делитель для расчета почасовой ставки из дневной
	HoursPerDay = 24
)
