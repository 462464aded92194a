package models

import "time"

type User struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	Roles           []Role `json:"roles"`
}

// HasRole reports whether the user carries the given role tag.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Notification struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// DashboardStats mirrors the manager dashboard payload.
type DashboardStats struct {
	TotalRooms     int64   `json:"totalRooms"`
	AvailableRooms int64   `json:"availableRooms"`
	BookedRooms    int64   `json:"bookedRooms"`
	TotalBookings  int64   `json:"totalBookings"`
	TotalUsers     int64   `json:"totalUsers"`
	TotalRevenue   float64 `json:"totalRevenue"`
	PendingRevenue float64 `json:"pendingRevenue"`
}
