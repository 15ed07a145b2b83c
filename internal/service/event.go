package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civicvault/events-api/internal/domain"
	"github.com/civicvault/events-api/internal/pkg/checkincode"
	"github.com/civicvault/events-api/internal/pkg/regnumber"
	"github.com/civicvault/events-api/internal/repository"
)

var (
	ErrEventNotFound        = repository.ErrEventNotFound
	ErrRegistrationNotFound = repository.ErrRegistrationNotFound

	ErrEventNotOpen          = errors.New("event is not open for registration")
	ErrAlreadyRegistered     = errors.New("user is already registered for this event")
	ErrWrongEvent            = errors.New("registration does not match this event")
	ErrAlreadyCheckedIn      = errors.New("attendee already checked in")
	ErrAlreadyCheckedOut     = errors.New("attendee already checked out")
	ErrNotCheckedIn          = errors.New("attendee is not checked in")
	ErrRegistrationCancelled = errors.New("registration is cancelled")
	ErrCannotCancel          = errors.New("registration can no longer be cancelled")
	ErrNotRegistered         = errors.New("user is not registered for this event")
	ErrDidNotAttend          = errors.New("user did not attend this event")
	ErrFeedbackExists        = errors.New("feedback already submitted for this event")
	ErrInvalidRating         = errors.New("overall rating must be between 1 and 5")
	ErrInvalidEvent          = errors.New("event capacity must be positive and start date must precede end date")
)

// regNumberAttempts bounds the retry loop on a duplicate registration number.
const regNumberAttempts = 3

type EventRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error)
	UpdateEventAttendees(ctx context.Context, id uint, count int) error
	CreateRegistration(ctx context.Context, reg domain.EventRegistration) (domain.EventRegistration, error)
	GetRegistrationByNumber(ctx context.Context, number string) (domain.EventRegistration, error)
	FindActiveRegistration(ctx context.Context, eventID, userID uint) (domain.EventRegistration, error)
	FindRegistrationByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventRegistration, error)
	CountActiveRegistrations(ctx context.Context, eventID uint) (int, error)
	ListRegistrationsByEvent(ctx context.Context, eventID uint) ([]domain.EventRegistration, error)
	UpdateRegistrationStatus(ctx context.Context, id uint, status domain.RegistrationStatus, at *time.Time) error
	CreateWaitlistEntry(ctx context.Context, entry domain.EventWaitlist) (domain.EventWaitlist, error)
	ListWaitlist(ctx context.Context, eventID uint) ([]domain.EventWaitlist, error)
	FindWaitlistEntryByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventWaitlist, error)
	MarkWaitlistEntryNotified(ctx context.Context, id uint, expiresAt time.Time) error
	DeleteWaitlistEntry(ctx context.Context, id uint) error
	CreateFeedback(ctx context.Context, feedback domain.EventFeedback) (domain.EventFeedback, error)
	FindFeedbackByEventAndUser(ctx context.Context, eventID, userID uint) (domain.EventFeedback, error)
	ListFeedbackByEvent(ctx context.Context, eventID uint) ([]domain.EventFeedback, error)
}

// NotificationSender delivers attendee-facing notifications. Sends are
// best-effort: a failed send never rolls back the state transition that
// triggered it.
type NotificationSender interface {
	SendRegistrationConfirmation(ctx context.Context, user domain.User, event domain.Event, reg domain.EventRegistration) error
	SendWaitlistOffer(ctx context.Context, entry domain.EventWaitlist, event domain.Event, expiresAt time.Time) error
	SendCheckoutThankYou(ctx context.Context, reg domain.EventRegistration, event domain.Event) error
}

// RegistrationResult is the outcome of a registration attempt: either a
// created registration or a waitlist position.
type RegistrationResult struct {
	Registration *domain.EventRegistration
	Waitlisted   bool
	Position     int
}

// RegistrationInfo describes where a user stands with an event.
type RegistrationInfo struct {
	Registration  *domain.EventRegistration
	WaitlistEntry *domain.EventWaitlist
}

type EventService struct {
	repo           EventRepository
	notifier       NotificationSender
	offerTTL       time.Duration
	feedbackPolicy domain.FeedbackPolicy
	now            func() time.Time

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewEventService(repo EventRepository, notifier NotificationSender, offerTTL time.Duration, feedbackPolicy domain.FeedbackPolicy) *EventService {
	if offerTTL <= 0 {
		offerTTL = 24 * time.Hour
	}
	if feedbackPolicy == "" {
		feedbackPolicy = domain.FeedbackPolicyAnyRegistration
	}

	return &EventService{
		repo:           repo,
		notifier:       notifier,
		offerTTL:       offerTTL,
		feedbackPolicy: feedbackPolicy,
		now:            time.Now,
		locks:          make(map[uint]*sync.Mutex),
	}
}

// lockEvent serializes read-then-write sequences against a single event.
// Operations on different events proceed in parallel.
func (s *EventService) lockEvent(eventID uint) func() {
	s.mu.Lock()
	lock, ok := s.locks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[eventID] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.Capacity <= 0 || !event.StartDate.Before(event.EndDate) {
		return domain.Event{}, ErrInvalidEvent
	}
	if event.Status == "" {
		event.Status = domain.EventStatusDraft
	}

	created, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.CreateEvent -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.GetEvent -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error) {
	events, err := s.repo.ListEvents(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListEvents -> %w", err)
	}

	return events, nil
}

// Register registers the user for the event or, when the event is at
// capacity, appends them to the waitlist. The confirmation notification is
// sent before returning but its failure never undoes the registration.
func (s *EventService) Register(ctx context.Context, eventID uint, user domain.User) (RegistrationResult, error) {
	unlock := s.lockEvent(eventID)
	defer unlock()

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.GetEvent -> %w", err)
	}

	if !event.IsOpenForRegistration() {
		return RegistrationResult{}, ErrEventNotOpen
	}

	_, err = s.repo.FindActiveRegistration(ctx, eventID, user.ID)
	if err == nil {
		return RegistrationResult{}, ErrAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return RegistrationResult{}, fmt.Errorf("s.repo.FindActiveRegistration -> %w", err)
	}

	active, err := s.repo.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.CountActiveRegistrations -> %w", err)
	}

	if active >= event.Capacity {
		return s.joinWaitlist(ctx, eventID, user)
	}

	reg, err := s.createRegistration(ctx, eventID, user)
	if err != nil {
		return RegistrationResult{}, err
	}

	count, err := s.repo.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.CountActiveRegistrations -> %w", err)
	}
	if err = s.repo.UpdateEventAttendees(ctx, eventID, count); err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.UpdateEventAttendees -> %w", err)
	}

	// A user claiming a waitlist offer leaves the waitlist.
	if entry, werr := s.repo.FindWaitlistEntryByEventAndUser(ctx, eventID, user.ID); werr == nil {
		if derr := s.repo.DeleteWaitlistEntry(ctx, entry.ID); derr != nil {
			zap.L().Warn("failed to remove claimed waitlist entry",
				zap.Uint("event_id", eventID),
				zap.Uint("user_id", user.ID),
				zap.Error(derr))
		}
	}

	if err = s.notifier.SendRegistrationConfirmation(ctx, user, event, reg); err != nil {
		zap.L().Warn("failed to send registration confirmation",
			zap.Uint("event_id", eventID),
			zap.String("registration_number", reg.RegistrationNumber),
			zap.Error(err))
	}

	return RegistrationResult{Registration: &reg}, nil
}

func (s *EventService) createRegistration(ctx context.Context, eventID uint, user domain.User) (domain.EventRegistration, error) {
	var lastErr error
	for attempt := 0; attempt < regNumberAttempts; attempt++ {
		reg := domain.EventRegistration{
			EventID:            eventID,
			UserID:             user.ID,
			UserName:           user.Name,
			UserEmail:          user.Email,
			RegistrationNumber: regnumber.Generate(eventID, s.now()),
			Status:             domain.RegistrationStatusRegistered,
		}

		created, err := s.repo.CreateRegistration(ctx, reg)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrRegistrationNumberTaken) {
			return domain.EventRegistration{}, fmt.Errorf("s.repo.CreateRegistration -> %w", err)
		}

		lastErr = err
	}

	return domain.EventRegistration{}, fmt.Errorf("s.repo.CreateRegistration -> %w", lastErr)
}

func (s *EventService) joinWaitlist(ctx context.Context, eventID uint, user domain.User) (RegistrationResult, error) {
	// Joining twice keeps the original spot instead of appending a
	// duplicate entry.
	if existing, err := s.repo.FindWaitlistEntryByEventAndUser(ctx, eventID, user.ID); err == nil {
		return RegistrationResult{Waitlisted: true, Position: existing.Position}, nil
	} else if !errors.Is(err, repository.ErrWaitlistEntryNotFound) {
		return RegistrationResult{}, fmt.Errorf("s.repo.FindWaitlistEntryByEventAndUser -> %w", err)
	}

	entries, err := s.repo.ListWaitlist(ctx, eventID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.ListWaitlist -> %w", err)
	}

	entry := domain.EventWaitlist{
		EventID:   eventID,
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Position:  len(entries) + 1,
	}

	created, err := s.repo.CreateWaitlistEntry(ctx, entry)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("s.repo.CreateWaitlistEntry -> %w", err)
	}

	return RegistrationResult{Waitlisted: true, Position: created.Position}, nil
}

// Cancel cancels the caller's registration and offers the freed slot to the
// next eligible waitlisted user. The offer is advisory: the waitlisted user
// still registers through Register, where capacity is rechecked. Exactly one
// offer goes out per cancellation.
func (s *EventService) Cancel(ctx context.Context, eventID, userID uint) error {
	unlock := s.lockEvent(eventID)
	defer unlock()

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.GetEvent -> %w", err)
	}

	reg, err := s.repo.FindActiveRegistration(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("s.repo.FindActiveRegistration -> %w", err)
	}

	if !reg.CanCancel() {
		return ErrCannotCancel
	}

	if err = s.repo.UpdateRegistrationStatus(ctx, reg.ID, domain.RegistrationStatusCancelled, nil); err != nil {
		return fmt.Errorf("s.repo.UpdateRegistrationStatus -> %w", err)
	}

	count, err := s.repo.CountActiveRegistrations(ctx, eventID)
	if err != nil {
		return fmt.Errorf("s.repo.CountActiveRegistrations -> %w", err)
	}
	if err = s.repo.UpdateEventAttendees(ctx, eventID, count); err != nil {
		return fmt.Errorf("s.repo.UpdateEventAttendees -> %w", err)
	}

	s.promoteNext(ctx, event)

	return nil
}

// promoteNext marks the first eligible waitlist entry as notified and sends
// the offer. Failures are logged, never surfaced: the cancellation has
// already been committed.
func (s *EventService) promoteNext(ctx context.Context, event domain.Event) {
	entries, err := s.repo.ListWaitlist(ctx, event.ID)
	if err != nil {
		zap.L().Warn("failed to list waitlist for promotion",
			zap.Uint("event_id", event.ID),
			zap.Error(err))
		return
	}

	next := domain.NextEligible(entries, s.now())
	if next == nil {
		return
	}

	expiresAt := s.now().Add(s.offerTTL)
	if err = s.repo.MarkWaitlistEntryNotified(ctx, next.ID, expiresAt); err != nil {
		zap.L().Warn("failed to mark waitlist entry notified",
			zap.Uint("event_id", event.ID),
			zap.Uint("user_id", next.UserID),
			zap.Error(err))
		return
	}

	if err = s.notifier.SendWaitlistOffer(ctx, *next, event, expiresAt); err != nil {
		zap.L().Warn("failed to send waitlist offer",
			zap.Uint("event_id", event.ID),
			zap.Uint("user_id", next.UserID),
			zap.Error(err))
	}
}

// CheckIn transitions a registration to checked_in. The code may be a raw
// registration number or a QR payload; a payload issued for another event is
// rejected before any lookup.
func (s *EventService) CheckIn(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error) {
	unlock := s.lockEvent(eventID)
	defer unlock()

	reg, err := s.resolveRegistration(ctx, eventID, rawCode)
	if err != nil {
		return domain.EventRegistration{}, err
	}

	switch reg.Status {
	case domain.RegistrationStatusCheckedIn:
		return reg, ErrAlreadyCheckedIn
	case domain.RegistrationStatusCheckedOut:
		return reg, ErrAlreadyCheckedOut
	case domain.RegistrationStatusCancelled:
		return domain.EventRegistration{}, ErrRegistrationCancelled
	}

	now := s.now()
	if err = s.repo.UpdateRegistrationStatus(ctx, reg.ID, domain.RegistrationStatusCheckedIn, &now); err != nil {
		return domain.EventRegistration{}, fmt.Errorf("s.repo.UpdateRegistrationStatus -> %w", err)
	}

	reg.Status = domain.RegistrationStatusCheckedIn
	reg.CheckInTime = &now

	return reg, nil
}

// CheckOut transitions a checked_in registration to checked_out and fires the
// thank-you notification without waiting for it.
func (s *EventService) CheckOut(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error) {
	unlock := s.lockEvent(eventID)
	defer unlock()

	reg, err := s.resolveRegistration(ctx, eventID, rawCode)
	if err != nil {
		return domain.EventRegistration{}, err
	}

	if reg.Status != domain.RegistrationStatusCheckedIn {
		return domain.EventRegistration{}, ErrNotCheckedIn
	}

	now := s.now()
	if err = s.repo.UpdateRegistrationStatus(ctx, reg.ID, domain.RegistrationStatusCheckedOut, &now); err != nil {
		return domain.EventRegistration{}, fmt.Errorf("s.repo.UpdateRegistrationStatus -> %w", err)
	}

	reg.Status = domain.RegistrationStatusCheckedOut
	reg.CheckOutTime = &now

	go func(reg domain.EventRegistration) {
		event, err := s.repo.GetEvent(context.Background(), reg.EventID)
		if err != nil {
			zap.L().Warn("failed to load event for checkout notification",
				zap.Uint("event_id", reg.EventID),
				zap.Error(err))
			return
		}

		if err = s.notifier.SendCheckoutThankYou(context.Background(), reg, event); err != nil {
			zap.L().Warn("failed to send checkout thank-you",
				zap.Uint("event_id", reg.EventID),
				zap.String("registration_number", reg.RegistrationNumber),
				zap.Error(err))
		}
	}(reg)

	return reg, nil
}

func (s *EventService) resolveRegistration(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error) {
	code := checkincode.Parse(rawCode)

	if !code.MatchesEvent(strconv.FormatUint(uint64(eventID), 10)) {
		return domain.EventRegistration{}, ErrWrongEvent
	}

	reg, err := s.repo.GetRegistrationByNumber(ctx, code.RegistrationNumber)
	if err != nil {
		return domain.EventRegistration{}, fmt.Errorf("s.repo.GetRegistrationByNumber -> %w", err)
	}

	if reg.EventID != eventID {
		return domain.EventRegistration{}, ErrWrongEvent
	}

	return reg, nil
}

// SubmitFeedback records feedback, at most once per user per event.
// Eligibility is governed by the configured policy.
func (s *EventService) SubmitFeedback(ctx context.Context, eventID uint, user domain.User, feedback domain.EventFeedback) (domain.EventFeedback, error) {
	if feedback.OverallRating < 1 || feedback.OverallRating > 5 {
		return domain.EventFeedback{}, ErrInvalidRating
	}

	unlock := s.lockEvent(eventID)
	defer unlock()

	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return domain.EventFeedback{}, fmt.Errorf("s.repo.GetEvent -> %w", err)
	}

	reg, err := s.repo.FindRegistrationByEventAndUser(ctx, eventID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.EventFeedback{}, ErrNotRegistered
		}

		return domain.EventFeedback{}, fmt.Errorf("s.repo.FindRegistrationByEventAndUser -> %w", err)
	}

	if !s.feedbackPolicy.Allows(reg) {
		return domain.EventFeedback{}, ErrDidNotAttend
	}

	_, err = s.repo.FindFeedbackByEventAndUser(ctx, eventID, user.ID)
	if err == nil {
		return domain.EventFeedback{}, ErrFeedbackExists
	}
	if !errors.Is(err, repository.ErrFeedbackNotFound) {
		return domain.EventFeedback{}, fmt.Errorf("s.repo.FindFeedbackByEventAndUser -> %w", err)
	}

	feedback.EventID = eventID
	feedback.UserID = user.ID
	feedback.UserName = user.Name

	created, err := s.repo.CreateFeedback(ctx, feedback)
	if err != nil {
		return domain.EventFeedback{}, fmt.Errorf("s.repo.CreateFeedback -> %w", err)
	}

	return created, nil
}

// GetRegistrationInfo reports where the user stands with an event: holding a
// registration, waiting on the waitlist, or neither.
func (s *EventService) GetRegistrationInfo(ctx context.Context, eventID, userID uint) (RegistrationInfo, error) {
	reg, err := s.repo.FindActiveRegistration(ctx, eventID, userID)
	if err == nil {
		return RegistrationInfo{Registration: &reg}, nil
	}
	if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return RegistrationInfo{}, fmt.Errorf("s.repo.FindActiveRegistration -> %w", err)
	}

	entry, err := s.repo.FindWaitlistEntryByEventAndUser(ctx, eventID, userID)
	if err == nil {
		return RegistrationInfo{WaitlistEntry: &entry}, nil
	}
	if !errors.Is(err, repository.ErrWaitlistEntryNotFound) {
		return RegistrationInfo{}, fmt.Errorf("s.repo.FindWaitlistEntryByEventAndUser -> %w", err)
	}

	return RegistrationInfo{}, nil
}

func (s *EventService) ListRegistrations(ctx context.Context, eventID uint) ([]domain.EventRegistration, error) {
	regs, err := s.repo.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListRegistrationsByEvent -> %w", err)
	}

	return regs, nil
}

func (s *EventService) ListWaitlist(ctx context.Context, eventID uint) ([]domain.EventWaitlist, error) {
	entries, err := s.repo.ListWaitlist(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListWaitlist -> %w", err)
	}

	return entries, nil
}

func (s *EventService) ListFeedback(ctx context.Context, eventID uint) ([]domain.EventFeedback, error) {
	feedbacks, err := s.repo.ListFeedbackByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListFeedbackByEvent -> %w", err)
	}

	return feedbacks, nil
}
