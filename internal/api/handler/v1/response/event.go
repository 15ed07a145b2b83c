package response

import (
	"time"

	"github.com/civicvault/events-api/internal/domain"
)

type RegistrationResponse struct {
	Message      string                    `json:"message"`
	Waitlisted   bool                      `json:"waitlisted"`
	Position     int                       `json:"position,omitempty"`
	Registration *domain.EventRegistration `json:"registration,omitempty"`
}

type RegistrationStatusResponse struct {
	Registered   bool                      `json:"registered"`
	Waitlisted   bool                      `json:"waitlisted"`
	Position     int                       `json:"position,omitempty"`
	Registration *domain.EventRegistration `json:"registration,omitempty"`
}

// AttendeeResponse is the check-in desk's immediate feedback about the person
// in front of the officer.
type AttendeeResponse struct {
	Message          string     `json:"message"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	AlreadyCheckedIn bool       `json:"already_checked_in,omitempty"`
}
