package domain

import "time"

type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusCheckedIn  RegistrationStatus = "checked_in"
	RegistrationStatusCheckedOut RegistrationStatus = "checked_out"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// ActiveStatuses are the registration statuses that count against event
// capacity. A cancelled registration frees its slot.
var ActiveStatuses = []RegistrationStatus{
	RegistrationStatusRegistered,
	RegistrationStatusCheckedIn,
	RegistrationStatusCheckedOut,
}

type EventRegistration struct {
	ID                 uint               `json:"id"`
	EventID            uint               `json:"event_id"`
	UserID             uint               `json:"user_id"`
	UserName           string             `json:"user_name"`
	UserEmail          string             `json:"user_email"`
	RegistrationNumber string             `json:"registration_number"`
	Status             RegistrationStatus `json:"status"`
	CheckInTime        *time.Time         `json:"check_in_time,omitempty"`
	CheckOutTime       *time.Time         `json:"check_out_time,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsActive reports whether the registration still holds a slot.
func (r EventRegistration) IsActive() bool {
	return r.Status != RegistrationStatusCancelled
}

// CanCancel reports whether the registration may transition to cancelled.
// checked_out and cancelled are terminal.
func (r EventRegistration) CanCancel() bool {
	return r.Status == RegistrationStatusRegistered || r.Status == RegistrationStatusCheckedIn
}
