package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civicvault/events-api/internal/api/handler/v1/request"
	"github.com/civicvault/events-api/internal/api/handler/v1/response"
	"github.com/civicvault/events-api/internal/domain"
	"github.com/civicvault/events-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	ListEvents(ctx context.Context, statuses []domain.EventStatus) ([]domain.Event, error)
	Register(ctx context.Context, eventID uint, user domain.User) (service.RegistrationResult, error)
	Cancel(ctx context.Context, eventID, userID uint) error
	CheckIn(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error)
	CheckOut(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error)
	SubmitFeedback(ctx context.Context, eventID uint, user domain.User, feedback domain.EventFeedback) (domain.EventFeedback, error)
	GetRegistrationInfo(ctx context.Context, eventID, userID uint) (service.RegistrationInfo, error)
	ListRegistrations(ctx context.Context, eventID uint) ([]domain.EventRegistration, error)
	ListWaitlist(ctx context.Context, eventID uint) ([]domain.EventWaitlist, error)
	ListFeedback(ctx context.Context, eventID uint) ([]domain.EventFeedback, error)
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func eventIDFromPath(ctx *gin.Context) (uint, error) {
	eventID, err := strconv.ParseUint(ctx.Param("eventID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event ID: %w", err)
	}

	return uint(eventID), nil
}

// HandleCreateEvent godoc
// @Summary      Create a new event
// @Description  Creates an event. Only admins can create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if user.Role != domain.RoleAdmin {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an admin", user.ID)))
		return
	}

	var input request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	startDate, endDate := input.Dates()

	event := domain.Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Capacity:    input.Capacity,
		Status:      domain.EventStatus(input.Status),
		OrganizerID: user.ID,
		StartDate:   startDate,
		EndDate:     endDate,
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidEvent))
			return
		}

		err = fmt.Errorf("HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Citizens see published events; officers and admins see everything.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var statuses []domain.EventStatus
	if !user.CanManageAttendance() {
		statuses = []domain.EventStatus{domain.EventStatusPublished}
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), statuses)
	if err != nil {
		err = fmt.Errorf("HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Registers the caller, or waitlists them when the event is full.
// @Tags         events,registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {object}  response.RegistrationResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security BearerAuth
func (h *EventHandler) HandleRegister(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Register(ctx.Request.Context(), eventID, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrEventNotOpen):
			response.RenderErr(ctx, response.ErrConflict(service.ErrEventNotOpen))
		case errors.Is(err, service.ErrAlreadyRegistered):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyRegistered))
		default:
			err = fmt.Errorf("HandleRegister -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	if result.Waitlisted {
		ctx.JSON(http.StatusOK, response.RegistrationResponse{
			Message:    "Event is full. You have been added to the waitlist.",
			Waitlisted: true,
			Position:   result.Position,
		})
		return
	}

	ctx.JSON(http.StatusOK, response.RegistrationResponse{
		Message:      "Registration successful.",
		Registration: result.Registration,
	})
}

// HandleGetRegistration godoc
// @Summary      Get the caller's registration for an event
// @Tags         events,registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {object}  response.RegistrationStatusResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/registration [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	info, err := h.svc.GetRegistrationInfo(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		err = fmt.Errorf("HandleGetRegistration -> h.svc.GetRegistrationInfo -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	resp := response.RegistrationStatusResponse{}
	switch {
	case info.Registration != nil:
		resp.Registered = true
		resp.Registration = info.Registration
	case info.WaitlistEntry != nil:
		resp.Waitlisted = true
		resp.Position = info.WaitlistEntry.Position
	}

	ctx.JSON(http.StatusOK, resp)
}

// HandleCancelRegistration godoc
// @Summary      Cancel the caller's registration
// @Description  Cancels the registration and offers the freed slot to the next eligible waitlisted user.
// @Tags         events,registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/register [delete]
// @Security BearerAuth
func (h *EventHandler) HandleCancelRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err = h.svc.Cancel(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "eventID", eventID))
		case errors.Is(err, service.ErrCannotCancel):
			response.RenderErr(ctx, response.ErrConflict(service.ErrCannotCancel))
		default:
			err = fmt.Errorf("HandleCancelRegistration -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Registration cancelled. Waitlist processed."})
}

// HandleCheckIn godoc
// @Summary      Check an attendee in
// @Description  Accepts a registration number or scanned QR payload. Officers and admins only.
// @Tags         events,attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                     true  "Event ID"
// @Param        input    body      request.CheckInRequest  true  "Registration number or QR data"
// @Success      200  {object}  response.AttendeeResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/check-in [post]
// @Security BearerAuth
func (h *EventHandler) HandleCheckIn(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.CanManageAttendance() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage attendance", user.ID)))
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var input request.CheckInRequest
	if err = ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.CheckIn(ctx.Request.Context(), eventID, input.Code())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyCheckedIn):
			// Reported distinctly so the desk can show "already checked
			// in" instead of a generic failure.
			ctx.JSON(http.StatusConflict, response.AttendeeResponse{
				Message:          service.ErrAlreadyCheckedIn.Error(),
				Name:             reg.UserName,
				Email:            reg.UserEmail,
				Status:           string(reg.Status),
				CheckInTime:      reg.CheckInTime,
				AlreadyCheckedIn: true,
			})
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "number", input.Code()))
		case errors.Is(err, service.ErrWrongEvent):
			response.RenderErr(ctx, response.ErrConflict(service.ErrWrongEvent))
		case errors.Is(err, service.ErrAlreadyCheckedOut):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyCheckedOut))
		case errors.Is(err, service.ErrRegistrationCancelled):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRegistrationCancelled))
		default:
			err = fmt.Errorf("HandleCheckIn -> h.svc.CheckIn -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.AttendeeResponse{
		Message:     "Check-in successful",
		Name:        reg.UserName,
		Email:       reg.UserEmail,
		Status:      string(reg.Status),
		CheckInTime: reg.CheckInTime,
	})
}

// HandleCheckOut godoc
// @Summary      Check an attendee out
// @Description  Accepts a registration number or scanned QR payload. Officers and admins only.
// @Tags         events,attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                     true  "Event ID"
// @Param        input    body      request.CheckInRequest  true  "Registration number or QR data"
// @Success      200  {object}  response.AttendeeResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/check-out [post]
// @Security BearerAuth
func (h *EventHandler) HandleCheckOut(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.CanManageAttendance() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage attendance", user.ID)))
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var input request.CheckInRequest
	if err = ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.CheckOut(ctx.Request.Context(), eventID, input.Code())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "number", input.Code()))
		case errors.Is(err, service.ErrWrongEvent):
			response.RenderErr(ctx, response.ErrConflict(service.ErrWrongEvent))
		case errors.Is(err, service.ErrNotCheckedIn):
			response.RenderErr(ctx, response.ErrConflict(service.ErrNotCheckedIn))
		default:
			err = fmt.Errorf("HandleCheckOut -> h.svc.CheckOut -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.AttendeeResponse{
		Message:      "Check-out successful",
		Name:         reg.UserName,
		Email:        reg.UserEmail,
		Status:       string(reg.Status),
		CheckInTime:  reg.CheckInTime,
		CheckOutTime: reg.CheckOutTime,
	})
}

// HandleSubmitFeedback godoc
// @Summary      Submit feedback for an event
// @Tags         events,feedback
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                            true  "Event ID"
// @Param        input    body      request.SubmitFeedbackRequest  true  "Ratings and comments"
// @Success      201  {object}  domain.EventFeedback
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/feedback [post]
// @Security BearerAuth
func (h *EventHandler) HandleSubmitFeedback(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var input request.SubmitFeedbackRequest
	if err = ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	feedback := domain.EventFeedback{
		OverallRating:      input.OverallRating,
		SpeakerRating:      input.SpeakerRating,
		VenueRating:        input.VenueRating,
		OrganizationRating: input.OrganizationRating,
		Comments:           input.Comments,
	}

	created, err := h.svc.SubmitFeedback(ctx.Request.Context(), eventID, user, feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotRegistered):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotRegistered))
		case errors.Is(err, service.ErrDidNotAttend):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrDidNotAttend))
		case errors.Is(err, service.ErrFeedbackExists):
			response.RenderErr(ctx, response.ErrConflict(service.ErrFeedbackExists))
		case errors.Is(err, service.ErrInvalidRating):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidRating))
		default:
			err = fmt.Errorf("HandleSubmitFeedback -> h.svc.SubmitFeedback -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListWaitlist godoc
// @Summary      List an event's waitlist
// @Description  Officers and admins only. Entries are ordered by position.
// @Tags         events,registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {array}   domain.EventWaitlist
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/waitlist [get]
// @Security BearerAuth
func (h *EventHandler) HandleListWaitlist(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.CanManageAttendance() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage attendance", user.ID)))
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entries, err := h.svc.ListWaitlist(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("HandleListWaitlist -> h.svc.ListWaitlist -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleListFeedback godoc
// @Summary      List an event's feedback
// @Description  Officers and admins only.
// @Tags         events,feedback
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {array}   domain.EventFeedback
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/feedback [get]
// @Security BearerAuth
func (h *EventHandler) HandleListFeedback(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.CanManageAttendance() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage attendance", user.ID)))
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	feedbacks, err := h.svc.ListFeedback(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("HandleListFeedback -> h.svc.ListFeedback -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, feedbacks)
}

// HandleListRegistrations godoc
// @Summary      List an event's registrations
// @Description  Officers and admins only.
// @Tags         events,registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200  {array}   domain.EventRegistration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/registrations [get]
// @Security BearerAuth
func (h *EventHandler) HandleListRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !user.CanManageAttendance() {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v cannot manage attendance", user.ID)))
		return
	}

	eventID, err := eventIDFromPath(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	regs, err := h.svc.ListRegistrations(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("HandleListRegistrations -> h.svc.ListRegistrations -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, regs)
}
