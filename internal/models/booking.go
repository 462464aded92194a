package models

import "time"

type Booking struct {
	ID            int64         `json:"id"`
	RoomID        int64         `json:"roomId"`
	RoomNumber    string        `json:"roomNumber,omitempty"`
	CustomerID    int64         `json:"customerId"`
	CustomerName  string        `json:"customerName,omitempty"`
	StartDateTime time.Time     `json:"startDateTime"`
	EndDateTime   time.Time     `json:"endDateTime"`
	Status        BookingStatus `json:"status"`
	TotalAmount   float64       `json:"totalAmount"`
	IsPaid        bool          `json:"isPaid"`
	CreatedAt     time.Time     `json:"createdAt"`
	CheckedOutAt  *time.Time    `json:"checkedOutAt,omitempty"`

	EarlyCheckoutRequested bool   `json:"earlyCheckoutRequested,omitempty"`
	EarlyCheckoutReason    string `json:"earlyCheckoutReason,omitempty"`
}

// IsTerminal reports whether no further status transition is defined.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether the booking still blocks its room.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// CanCancel: отмена возможна только пока заявка не выселена.
func (b Booking) CanCancel() bool {
	return b.Status.IsActive()
}

// CanPay: оплата предлагается только после выселения и до оплаты.
func (b Booking) CanPay() bool {
	return b.Status == StatusCheckedOut && !b.IsPaid
}

// CanTransition reports whether the server-driven lifecycle defines
// a move from the current status to next.
func (b Booking) CanTransition(next BookingStatus) bool {
	switch b.Status {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusCancelled
	case StatusApproved:
		return next == StatusCheckedOut || next == StatusCancelled
	case StatusCheckedOut:
		return next == StatusCompleted
	}
	return false
}
