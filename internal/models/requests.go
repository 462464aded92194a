package models

import "time"

// LoginResult mirrors the /auth/login response.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Roles       []Role `json:"roles"`
}

// User assembles the identity carried by a session from the login payload.
func (r LoginResult) User() User {
	return User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Roles:     r.Roles,
	}
}

type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// CreateUserRequest is the admin-only staff account creation payload.
type CreateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type ProfileUpdate struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type BookingRequest struct {
	RoomID        int64     `json:"roomId"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
}

// CheckoutRequest carries an optional early-checkout ask.
type CheckoutRequest struct {
	IsEarlyCheckout bool   `json:"isEarlyCheckout"`
	Reason          string `json:"reason,omitempty"`
}
