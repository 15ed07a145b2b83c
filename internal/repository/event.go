package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/civicvault/events-api/internal/domain"
	"github.com/civicvault/events-api/internal/repository/dao"
)

var (
	ErrEventNotFound           = dao.ErrEventNotFound
	ErrRegistrationNotFound    = dao.ErrRegistrationNotFound
	ErrWaitlistEntryNotFound   = dao.ErrWaitlistEntryNotFound
	ErrFeedbackNotFound        = dao.ErrFeedbackNotFound
	ErrRegistrationNumberTaken = dao.ErrRegistrationNumberTaken
)

type EventDAO interface {
	InsertEvent(ctx context.Context, event dao.Event) (dao.Event, error)
	FindEventByID(ctx context.Context, id uint) (dao.Event, error)
	ListEvents(ctx context.Context, statuses []string) ([]dao.Event, error)
	UpdateEventAttendees(ctx context.Context, id uint, count int) error
	InsertRegistration(ctx context.Context, reg dao.EventRegistration) (dao.EventRegistration, error)
	FindRegistrationByNumber(ctx context.Context, number string) (dao.EventRegistration, error)
	FindActiveRegistration(ctx context.Context, eventID, userID uint) (dao.EventRegistration, error)
	FindRegistrationByEventAndUser(ctx context.Context, eventID, userID uint) (dao.EventRegistration, error)
	CountActiveRegistrations(ctx context.Context, eventID uint) (int, error)
	ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]dao.EventRegistration, error)
	UpdateRegistration(ctx context.Context, id uint, patch map[string]interface{}) error
	InsertWaitlistEntry(ctx context.Context, entry dao.EventWaitlist) (dao.EventWaitlist, error)
	ListWaitlistByEvent(ctx context.Context, eventID uint) ([]dao.EventWaitlist, error)
	FindWaitlistEntryByEventAndUser(ctx context.Context, eventID, userID uint) (dao.EventWaitlist, error)
	UpdateWaitlistEntry(ctx context.Context, id uint, patch map[string]interface{}) error
	DeleteWaitlistEntry(ctx context.Context, id uint) error
	InsertFeedback(ctx context.Context, feedback dao.EventFeedback) (dao.EventFeedback, error)
	FindFeedbackByEventAndUser(ctx context.Context, eventID, userID uint) (dao.EventFeedback, error)
	ListFeedbackByEvent(ctx context.Context, eventID uint) ([]dao.EventFeedback, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.InsertEvent(ctx, r.eventToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.InsertEvent -> %w", err)
	}

	return r.eventToDomain(created), nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindEventByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindEventByID -> %w", err)
	}

	return r.eventToDomain(found), nil
}

func (r *EventRepository) ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error) {
	daoStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		daoStatuses = append(daoStatuses, string(s))
	}

	found, err := r.dao.ListEvents(ctx, daoStatuses)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListEvents -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, r.eventToDomain(e))
	}

	return events, nil
}

func (r *EventRepository) UpdateEventAttendees(ctx context.Context, id uint, count int) error {
	if err := r.dao.UpdateEventAttendees(ctx, id, count); err != nil {
		return fmt.Errorf("r.dao.UpdateEventAttendees -> %w", err)
	}

	return nil
}

func (r *EventRepository) CreateRegistration(ctx context.Context, reg domain.EventRegistration) (domain.EventRegistration, error) {
	created, err := r.dao.InsertRegistration(ctx, r.registrationToDao(reg))
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("r.dao.InsertRegistration -> %w", err)
	}

	return r.registrationToDomain(created), nil
}

func (r *EventRepository) GetRegistrationByNumber(ctx context.Context, number string) (domain.EventRegistration, error) {
	found, err := r.dao.FindRegistrationByNumber(ctx, number)
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("r.dao.FindRegistrationByNumber -> %w", err)
	}

	return r.registrationToDomain(found), nil
}

func (r *EventRepository) FindActiveRegistration(ctx context.Context, eventID, userID uint) (domain.EventRegistration, error) {
	found, err := r.dao.FindActiveRegistration(ctx, eventID, userID)
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("r.dao.FindActiveRegistration -> %w", err)
	}

	return r.registrationToDomain(found), nil
}

func (r *EventRepository) FindRegistrationByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventRegistration, error) {
	found, err := r.dao.FindRegistrationByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("r.dao.FindRegistrationByEventAndUser -> %w", err)
	}

	return r.registrationToDomain(found), nil
}

func (r *EventRepository) CountActiveRegistrations(ctx context.Context, eventID uint) (int, error) {
	count, err := r.dao.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountActiveRegistrations -> %w", err)
	}

	return count, nil
}

func (r *EventRepository) ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]domain.EventRegistration, error) {
	found, err := r.dao.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListRegistrationsByEvent -> %w", err)
	}

	regs := make([]domain.EventRegistration, 0, len(found))
	for _, reg := range found {
		regs = append(regs, r.registrationToDomain(reg))
	}

	return regs, nil
}

// UpdateRegistrationStatus transitions a registration and stamps the matching
// attendance time. The timestamps are written exactly once, alongside the
// transition that introduces them.
func (r *EventRepository) UpdateRegistrationStatus(ctx context.Context, id uint, status domain.RegistrationStatus, at *time.Time) error {
	patch := map[string]interface{}{"status": string(status)}
	switch status {
	case domain.RegistrationStatusCheckedIn:
		patch["check_in_time"] = at
	case domain.RegistrationStatusCheckedOut:
		patch["check_out_time"] = at
	}

	if err := r.dao.UpdateRegistration(ctx, id, patch); err != nil {
		return fmt.Errorf("r.dao.UpdateRegistration -> %w", err)
	}

	return nil
}

func (r *EventRepository) CreateWaitlistEntry(ctx context.Context, entry domain.EventWaitlist) (domain.EventWaitlist, error) {
	created, err := r.dao.InsertWaitlistEntry(ctx, r.waitlistToDao(entry))
	if err != nil {
		return domain.EventWaitlist{}, fmt.Errorf("r.dao.InsertWaitlistEntry -> %w", err)
	}

	return r.waitlistToDomain(created), nil
}

func (r *EventRepository) ListWaitlist(ctx context.Context, eventID uint) ([]domain.EventWaitlist, error) {
	found, err := r.dao.ListWaitlistByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListWaitlistByEvent -> %w", err)
	}

	entries := make([]domain.EventWaitlist, 0, len(found))
	for _, entry := range found {
		entries = append(entries, r.waitlistToDomain(entry))
	}

	return entries, nil
}

func (r *EventRepository) FindWaitlistEntryByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventWaitlist, error) {
	found, err := r.dao.FindWaitlistEntryByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return domain.EventWaitlist{}, fmt.Errorf("r.dao.FindWaitlistEntryByEventAndUser -> %w", err)
	}

	return r.waitlistToDomain(found), nil
}

func (r *EventRepository) MarkWaitlistEntryNotified(ctx context.Context, id uint, expiresAt time.Time) error {
	err := r.dao.UpdateWaitlistEntry(ctx, id, map[string]interface{}{
		"notified":   true,
		"expires_at": expiresAt,
	})
	if err != nil {
		return fmt.Errorf("r.dao.UpdateWaitlistEntry -> %w", err)
	}

	return nil
}

func (r *EventRepository) DeleteWaitlistEntry(ctx context.Context, id uint) error {
	if err := r.dao.DeleteWaitlistEntry(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeleteWaitlistEntry -> %w", err)
	}

	return nil
}

func (r *EventRepository) CreateFeedback(ctx context.Context, feedback domain.EventFeedback) (domain.EventFeedback, error) {
	created, err := r.dao.InsertFeedback(ctx, r.feedbackToDao(feedback))
	if err != nil {
		return domain.EventFeedback{}, fmt.Errorf("r.dao.InsertFeedback -> %w", err)
	}

	return r.feedbackToDomain(created), nil
}

func (r *EventRepository) FindFeedbackByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventFeedback, error) {
	found, err := r.dao.FindFeedbackByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return domain.EventFeedback{}, fmt.Errorf("r.dao.FindFeedbackByEventAndUser -> %w", err)
	}

	return r.feedbackToDomain(found), nil
}

func (r *EventRepository) ListFeedbackByEvent(ctx context.Context, eventID uint) ([]domain.EventFeedback, error) {
	found, err := r.dao.ListFeedbackByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListFeedbackByEvent -> %w", err)
	}

	feedbacks := make([]domain.EventFeedback, 0, len(found))
	for _, f := range found {
		feedbacks = append(feedbacks, r.feedbackToDomain(f))
	}

	return feedbacks, nil
}

func (r *EventRepository) eventToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Location:         e.Location,
		Capacity:         e.Capacity,
		CurrentAttendees: e.CurrentAttendees,
		Status:           string(e.Status),
		OrganizerID:      e.OrganizerID,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
	}
}

func (r *EventRepository) eventToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Location:         e.Location,
		Capacity:         e.Capacity,
		CurrentAttendees: e.CurrentAttendees,
		Status:           domain.EventStatus(e.Status),
		OrganizerID:      e.OrganizerID,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func (r *EventRepository) registrationToDao(reg domain.EventRegistration) dao.EventRegistration {
	return dao.EventRegistration{
		ID:                 reg.ID,
		EventID:            reg.EventID,
		UserID:             reg.UserID,
		UserName:           reg.UserName,
		UserEmail:          reg.UserEmail,
		RegistrationNumber: reg.RegistrationNumber,
		Status:             string(reg.Status),
		CheckInTime:        reg.CheckInTime,
		CheckOutTime:       reg.CheckOutTime,
	}
}

func (r *EventRepository) registrationToDomain(reg dao.EventRegistration) domain.EventRegistration {
	return domain.EventRegistration{
		ID:                 reg.ID,
		EventID:            reg.EventID,
		UserID:             reg.UserID,
		UserName:           reg.UserName,
		UserEmail:          reg.UserEmail,
		RegistrationNumber: reg.RegistrationNumber,
		Status:             domain.RegistrationStatus(reg.Status),
		CheckInTime:        reg.CheckInTime,
		CheckOutTime:       reg.CheckOutTime,
		CreatedAt:          reg.CreatedAt,
		UpdatedAt:          reg.UpdatedAt,
	}
}

func (r *EventRepository) waitlistToDao(entry domain.EventWaitlist) dao.EventWaitlist {
	return dao.EventWaitlist{
		ID:        entry.ID,
		EventID:   entry.EventID,
		UserID:    entry.UserID,
		UserName:  entry.UserName,
		UserEmail: entry.UserEmail,
		Position:  entry.Position,
		Notified:  entry.Notified,
		ExpiresAt: entry.ExpiresAt,
	}
}

func (r *EventRepository) waitlistToDomain(entry dao.EventWaitlist) domain.EventWaitlist {
	return domain.EventWaitlist{
		ID:        entry.ID,
		EventID:   entry.EventID,
		UserID:    entry.UserID,
		UserName:  entry.UserName,
		UserEmail: entry.UserEmail,
		Position:  entry.Position,
		Notified:  entry.Notified,
		ExpiresAt: entry.ExpiresAt,
		CreatedAt: entry.CreatedAt,
	}
}

func (r *EventRepository) feedbackToDao(f domain.EventFeedback) dao.EventFeedback {
	return dao.EventFeedback{
		ID:                 f.ID,
		EventID:            f.EventID,
		UserID:             f.UserID,
		UserName:           f.UserName,
		OverallRating:      f.OverallRating,
		SpeakerRating:      f.SpeakerRating,
		VenueRating:        f.VenueRating,
		OrganizationRating: f.OrganizationRating,
		Comments:           f.Comments,
	}
}

func (r *EventRepository) feedbackToDomain(f dao.EventFeedback) domain.EventFeedback {
	return domain.EventFeedback{
		ID:                 f.ID,
		EventID:            f.EventID,
		UserID:             f.UserID,
		UserName:           f.UserName,
		OverallRating:      f.OverallRating,
		SpeakerRating:      f.SpeakerRating,
		VenueRating:        f.VenueRating,
		OrganizationRating: f.OrganizationRating,
		Comments:           f.Comments,
		CreatedAt:          f.CreatedAt,
	}
}
