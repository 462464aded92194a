package models

type Room struct {
	ID         int64      `json:"id"`
	RoomNumber string     `json:"roomNumber"`
	Type       RoomType   `json:"type"`
	Status     RoomStatus `json:"status"`
	Price      float64    `json:"price"` // дневная ставка
	ImageURL   string     `json:"imageUrl,omitempty"`
}

// HourlyRate derives the per-hour rate from the daily price.
func (r Room) HourlyRate() float64 {
	return r.Price / HoursPerDay
}
