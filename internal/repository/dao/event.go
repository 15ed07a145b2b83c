package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrWaitlistEntryNotFound   = errors.New("waitlist entry not found")
	ErrFeedbackNotFound        = errors.New("feedback not found")
	ErrRegistrationNumberTaken = errors.New("registration number already taken")
)

// activeStatuses are the registration statuses that occupy a slot.
var activeStatuses = []string{"registered", "checked_in", "checked_out"}

type Event struct {
	ID               uint   `gorm:"primaryKey"`
	Title            string `gorm:"not null"`
	Description      string
	Location         string
	Capacity         int    `gorm:"not null"`
	CurrentAttendees int    `gorm:"not null;default:0"`
	Status           string `gorm:"not null;index"`
	OrganizerID      uint   `gorm:"not null;index"`
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EventRegistration struct {
	ID                 uint   `gorm:"primaryKey"`
	EventID            uint   `gorm:"not null;index"`
	Event              Event  `gorm:"foreignKey:EventID"`
	UserID             uint   `gorm:"not null;index"`
	UserName           string `gorm:"not null"`
	UserEmail          string `gorm:"not null"`
	RegistrationNumber string `gorm:"unique;not null"`
	Status             string `gorm:"not null;index"`
	CheckInTime        *time.Time
	CheckOutTime       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type EventWaitlist struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   uint   `gorm:"not null;index"`
	Event     Event  `gorm:"foreignKey:EventID"`
	UserID    uint   `gorm:"not null;index"`
	UserName  string `gorm:"not null"`
	UserEmail string `gorm:"not null"`
	Position  int    `gorm:"not null"`
	Notified  bool   `gorm:"not null;default:false"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type EventFeedback struct {
	ID                 uint   `gorm:"primaryKey"`
	EventID            uint   `gorm:"not null;index"`
	Event              Event  `gorm:"foreignKey:EventID"`
	UserID             uint   `gorm:"not null;index"`
	UserName           string `gorm:"not null"`
	OverallRating      int    `gorm:"not null"`
	SpeakerRating      int
	VenueRating        int
	OrganizationRating int
	Comments           string
	CreatedAt          time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) InsertEvent(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindEventByID(ctx context.Context, id uint) (Event, error) {
	var event Event
	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) ListEvents(ctx context.Context, statuses []string) ([]Event, error) {
	var events []Event
	tx := d.db.WithContext(ctx).Order("start_date asc")
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statuses)
	}
	if err := tx.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (d *EventDAO) UpdateEventAttendees(ctx context.Context, id uint, count int) error {
	result := d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("current_attendees", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (d *EventDAO) InsertRegistration(ctx context.Context, reg EventRegistration) (EventRegistration, error) {
	result := d.db.WithContext(ctx).Create(&reg)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) &&
			pgErr.Code == pgerrcode.UniqueViolation &&
			strings.Contains(pgErr.Message, "registration_number") {
			return EventRegistration{}, ErrRegistrationNumberTaken
		}

		return EventRegistration{}, result.Error
	}

	return reg, nil
}

func (d *EventDAO) FindRegistrationByNumber(ctx context.Context, number string) (EventRegistration, error) {
	var reg EventRegistration
	result := d.db.WithContext(ctx).Where("registration_number = ?", number).First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return EventRegistration{}, ErrRegistrationNotFound
		}

		return EventRegistration{}, result.Error
	}

	return reg, nil
}

// FindActiveRegistration returns the user's non-cancelled registration for
// the event, if any. Cancelled rows are invisible here on purpose: they no
// longer block re-registration, and cancelling twice must report not-found.
func (d *EventDAO) FindActiveRegistration(ctx context.Context, eventID, userID uint) (EventRegistration, error) {
	var reg EventRegistration
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ? AND status IN ?", eventID, userID, activeStatuses).
		First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return EventRegistration{}, ErrRegistrationNotFound
		}

		return EventRegistration{}, result.Error
	}

	return reg, nil
}

func (d *EventDAO) FindRegistrationByEventAndUser(ctx context.Context, eventID, userID uint) (EventRegistration, error) {
	var reg EventRegistration
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Order("created_at desc").
		First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return EventRegistration{}, ErrRegistrationNotFound
		}

		return EventRegistration{}, result.Error
	}

	return reg, nil
}

func (d *EventDAO) CountActiveRegistrations(ctx context.Context, eventID uint) (int, error) {
	var count int64
	result := d.db.WithContext(ctx).
		Model(&EventRegistration{}).
		Where("event_id = ? AND status IN ?", eventID, activeStatuses).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(count), nil
}

func (d *EventDAO) ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]EventRegistration, error) {
	var regs []EventRegistration
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

func (d *EventDAO) UpdateRegistration(ctx context.Context, id uint, patch map[string]interface{}) error {
	result := d.db.WithContext(ctx).
		Model(&EventRegistration{}).
		Where("id = ?", id).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}

	return nil
}

func (d *EventDAO) InsertWaitlistEntry(ctx context.Context, entry EventWaitlist) (EventWaitlist, error) {
	result := d.db.WithContext(ctx).Create(&entry)
	if result.Error != nil {
		return EventWaitlist{}, result.Error
	}

	return entry, nil
}

func (d *EventDAO) ListWaitlistByEvent(ctx context.Context, eventID uint) ([]EventWaitlist, error) {
	var entries []EventWaitlist
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position asc").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (d *EventDAO) FindWaitlistEntryByEventAndUser(ctx context.Context, eventID, userID uint) (EventWaitlist, error) {
	var entry EventWaitlist
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return EventWaitlist{}, ErrWaitlistEntryNotFound
		}

		return EventWaitlist{}, result.Error
	}

	return entry, nil
}

func (d *EventDAO) UpdateWaitlistEntry(ctx context.Context, id uint, patch map[string]interface{}) error {
	result := d.db.WithContext(ctx).
		Model(&EventWaitlist{}).
		Where("id = ?", id).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWaitlistEntryNotFound
	}

	return nil
}

func (d *EventDAO) DeleteWaitlistEntry(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&EventWaitlist{}, id)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

func (d *EventDAO) InsertFeedback(ctx context.Context, feedback EventFeedback) (EventFeedback, error) {
	result := d.db.WithContext(ctx).Create(&feedback)
	if result.Error != nil {
		return EventFeedback{}, result.Error
	}

	return feedback, nil
}

func (d *EventDAO) FindFeedbackByEventAndUser(ctx context.Context, eventID, userID uint) (EventFeedback, error) {
	var feedback EventFeedback
	result := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&feedback)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return EventFeedback{}, ErrFeedbackNotFound
		}

		return EventFeedback{}, result.Error
	}

	return feedback, nil
}

func (d *EventDAO) ListFeedbackByEvent(ctx context.Context, eventID uint) ([]EventFeedback, error) {
	var feedbacks []EventFeedback
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&feedbacks)
	if result.Error != nil {
		return nil, result.Error
	}

	return feedbacks, nil
}
