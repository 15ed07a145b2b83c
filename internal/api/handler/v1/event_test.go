package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicvault/events-api/internal/api/middleware"
	"github.com/civicvault/events-api/internal/domain"
	"github.com/civicvault/events-api/internal/service"
)

type stubEventService struct {
	registerFn       func(ctx context.Context, eventID uint, user domain.User) (service.RegistrationResult, error)
	cancelFn         func(ctx context.Context, eventID, userID uint) error
	checkInFn        func(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error)
	checkOutFn       func(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error)
	submitFeedbackFn func(ctx context.Context, eventID uint, user domain.User, feedback domain.EventFeedback) (domain.EventFeedback, error)
}

func (s *stubEventService) CreateEvent(_ context.Context, event domain.Event) (domain.Event, error) {
	event.ID = 1
	return event, nil
}

func (s *stubEventService) GetEvent(context.Context, uint) (domain.Event, error) {
	return domain.Event{}, service.ErrEventNotFound
}

func (s *stubEventService) ListEvents(context.Context, []domain.EventStatus) ([]domain.Event, error) {
	return nil, nil
}

func (s *stubEventService) Register(ctx context.Context, eventID uint, user domain.User) (service.RegistrationResult, error) {
	return s.registerFn(ctx, eventID, user)
}

func (s *stubEventService) Cancel(ctx context.Context, eventID, userID uint) error {
	return s.cancelFn(ctx, eventID, userID)
}

func (s *stubEventService) CheckIn(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error) {
	return s.checkInFn(ctx, eventID, rawCode)
}

func (s *stubEventService) CheckOut(ctx context.Context, eventID uint, rawCode string) (domain.EventRegistration, error) {
	return s.checkOutFn(ctx, eventID, rawCode)
}

func (s *stubEventService) SubmitFeedback(ctx context.Context, eventID uint, user domain.User, feedback domain.EventFeedback) (domain.EventFeedback, error) {
	return s.submitFeedbackFn(ctx, eventID, user, feedback)
}

func (s *stubEventService) GetRegistrationInfo(context.Context, uint, uint) (service.RegistrationInfo, error) {
	return service.RegistrationInfo{}, nil
}

func (s *stubEventService) ListRegistrations(context.Context, uint) ([]domain.EventRegistration, error) {
	return nil, nil
}

func (s *stubEventService) ListWaitlist(context.Context, uint) ([]domain.EventWaitlist, error) {
	return nil, nil
}

func (s *stubEventService) ListFeedback(context.Context, uint) ([]domain.EventFeedback, error) {
	return nil, nil
}

type stubUserService struct {
	user domain.User
}

func (s *stubUserService) GetUser(context.Context, uint) (domain.User, error) {
	return s.user, nil
}

func (s *stubUserService) GetOfficers(context.Context) ([]domain.User, error) {
	return nil, nil
}

func newTestRouter(svc *stubEventService, user domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewEventHandler(svc, &stubUserService{user: user})

	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeyUserID, user.ID)
	})

	router.POST("/events/:eventID/register", handler.HandleRegister)
	router.DELETE("/events/:eventID/register", handler.HandleCancelRegistration)
	router.POST("/events/:eventID/check-in", handler.HandleCheckIn)
	router.POST("/events/:eventID/feedback", handler.HandleSubmitFeedback)

	return router
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestHandleRegister(t *testing.T) {
	citizen := domain.User{ID: 1, Name: "ana", Role: domain.RoleCitizen}

	t.Run("registered", func(t *testing.T) {
		svc := &stubEventService{
			registerFn: func(_ context.Context, _ uint, _ domain.User) (service.RegistrationResult, error) {
				return service.RegistrationResult{
					Registration: &domain.EventRegistration{
						ID:                 7,
						RegistrationNumber: "EVT5-LX3K9A-7QWD",
						Status:             domain.RegistrationStatusRegistered,
					},
				}, nil
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/register", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["waitlisted"])
		assert.NotNil(t, body["registration"])
	})

	t.Run("waitlisted", func(t *testing.T) {
		svc := &stubEventService{
			registerFn: func(_ context.Context, _ uint, _ domain.User) (service.RegistrationResult, error) {
				return service.RegistrationResult{Waitlisted: true, Position: 3}, nil
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/register", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["waitlisted"])
		assert.Equal(t, float64(3), body["position"])
	})

	t.Run("already registered", func(t *testing.T) {
		svc := &stubEventService{
			registerFn: func(_ context.Context, _ uint, _ domain.User) (service.RegistrationResult, error) {
				return service.RegistrationResult{}, service.ErrAlreadyRegistered
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/register", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("event not found", func(t *testing.T) {
		svc := &stubEventService{
			registerFn: func(_ context.Context, _ uint, _ domain.User) (service.RegistrationResult, error) {
				return service.RegistrationResult{}, service.ErrEventNotFound
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/register", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad event ID", func(t *testing.T) {
		svc := &stubEventService{}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/abc/register", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCancelRegistration(t *testing.T) {
	citizen := domain.User{ID: 1, Name: "ana", Role: domain.RoleCitizen}

	t.Run("cancelled", func(t *testing.T) {
		svc := &stubEventService{
			cancelFn: func(_ context.Context, _ uint, _ uint) error {
				return nil
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodDelete, "/events/5/register", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no registration", func(t *testing.T) {
		svc := &stubEventService{
			cancelFn: func(_ context.Context, _ uint, _ uint) error {
				return service.ErrRegistrationNotFound
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodDelete, "/events/5/register", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("already checked out", func(t *testing.T) {
		svc := &stubEventService{
			cancelFn: func(_ context.Context, _ uint, _ uint) error {
				return service.ErrCannotCancel
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodDelete, "/events/5/register", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandleCheckIn(t *testing.T) {
	officer := domain.User{ID: 2, Name: "lee", Role: domain.RoleOfficer}
	citizen := domain.User{ID: 1, Name: "ana", Role: domain.RoleCitizen}

	body := `{"registration_number":"EVT5-LX3K9A-7QWD"}`

	t.Run("citizens cannot run the desk", func(t *testing.T) {
		svc := &stubEventService{}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/check-in", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("checked in", func(t *testing.T) {
		now := time.Now()
		svc := &stubEventService{
			checkInFn: func(_ context.Context, _ uint, rawCode string) (domain.EventRegistration, error) {
				assert.Equal(t, "EVT5-LX3K9A-7QWD", rawCode)
				return domain.EventRegistration{
					UserName:    "ana",
					UserEmail:   "ana@example.com",
					Status:      domain.RegistrationStatusCheckedIn,
					CheckInTime: &now,
				}, nil
			},
		}

		w := performRequest(newTestRouter(svc, officer), http.MethodPost, "/events/5/check-in", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ana", resp["name"])
		assert.Equal(t, "checked_in", resp["status"])
	})

	t.Run("already checked in keeps the attendee details", func(t *testing.T) {
		now := time.Now()
		svc := &stubEventService{
			checkInFn: func(_ context.Context, _ uint, _ string) (domain.EventRegistration, error) {
				return domain.EventRegistration{
					UserName:    "ana",
					UserEmail:   "ana@example.com",
					Status:      domain.RegistrationStatusCheckedIn,
					CheckInTime: &now,
				}, service.ErrAlreadyCheckedIn
			},
		}

		w := performRequest(newTestRouter(svc, officer), http.MethodPost, "/events/5/check-in", body)
		require.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["already_checked_in"])
		assert.Equal(t, "ana", resp["name"])
	})

	t.Run("wrong event", func(t *testing.T) {
		svc := &stubEventService{
			checkInFn: func(_ context.Context, _ uint, _ string) (domain.EventRegistration, error) {
				return domain.EventRegistration{}, service.ErrWrongEvent
			},
		}

		w := performRequest(newTestRouter(svc, officer), http.MethodPost, "/events/5/check-in", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing code", func(t *testing.T) {
		svc := &stubEventService{}

		w := performRequest(newTestRouter(svc, officer), http.MethodPost, "/events/5/check-in", "{}")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleSubmitFeedback(t *testing.T) {
	citizen := domain.User{ID: 1, Name: "ana", Role: domain.RoleCitizen}

	body := `{"overall_rating":4,"comments":"well organized"}`

	t.Run("created", func(t *testing.T) {
		svc := &stubEventService{
			submitFeedbackFn: func(_ context.Context, eventID uint, user domain.User, feedback domain.EventFeedback) (domain.EventFeedback, error) {
				feedback.ID = 1
				feedback.EventID = eventID
				feedback.UserID = user.ID
				return feedback, nil
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/feedback", body)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("not registered", func(t *testing.T) {
		svc := &stubEventService{
			submitFeedbackFn: func(_ context.Context, _ uint, _ domain.User, _ domain.EventFeedback) (domain.EventFeedback, error) {
				return domain.EventFeedback{}, service.ErrNotRegistered
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/feedback", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &stubEventService{
			submitFeedbackFn: func(_ context.Context, _ uint, _ domain.User, _ domain.EventFeedback) (domain.EventFeedback, error) {
				return domain.EventFeedback{}, service.ErrFeedbackExists
			},
		}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/feedback", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing overall rating", func(t *testing.T) {
		svc := &stubEventService{}

		w := performRequest(newTestRouter(svc, citizen), http.MethodPost, "/events/5/feedback", `{"comments":"ok"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
