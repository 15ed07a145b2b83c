package domain

import "time"

const (
	RoleCitizen = "citizen"
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanManageAttendance reports whether the user may run check-in desks and
// inspect registrations for events.
func (u User) CanManageAttendance() bool {
	return u.Role == RoleOfficer || u.Role == RoleAdmin
}
