package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watermelon-studio/studio-booking/internal/middleware"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i any) error {
	return tv.v.Struct(i)
}

func testEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

func authenticate(c echo.Context) {
	c.Set("claims", &middleware.Claims{
		UserID:   "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	})
}

type mockBookingService struct {
	createBooking        func(ctx context.Context, actor service.Actor, eventID uint) (*service.BookingResult, error)
	createBlockBooking   func(ctx context.Context, actor service.Actor, blockID uint) ([]models.Booking, error)
	cancelBooking        func(ctx context.Context, actor service.Actor, bookingID uint, cancelBlock bool) ([]models.Booking, error)
	createBookingForUser func(ctx context.Context, userID string, eventID uint, status models.BookingStatus) (*models.Booking, error)
	confirmSpace         func(ctx context.Context, bookingID uint) (*models.Booking, error)
	markPaid             func(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error)
	markBlockPaid        func(ctx context.Context, actor service.Actor, blockID uint) error
	getBooking           func(ctx context.Context, actor service.Actor, id uint) (*models.Booking, error)
	listBookings         func(ctx context.Context, actor service.Actor, history bool) ([]service.BookingInfo, error)
	joinWaitingList      func(ctx context.Context, actor service.Actor, eventID uint) (bool, error)
	leaveWaitingList     func(ctx context.Context, actor service.Actor, eventID uint) (bool, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, actor service.Actor, eventID uint) (*service.BookingResult, error) {
	return m.createBooking(ctx, actor, eventID)
}

func (m *mockBookingService) CreateBlockBooking(ctx context.Context, actor service.Actor, blockID uint) ([]models.Booking, error) {
	return m.createBlockBooking(ctx, actor, blockID)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, actor service.Actor, bookingID uint, cancelBlock bool) ([]models.Booking, error) {
	return m.cancelBooking(ctx, actor, bookingID, cancelBlock)
}

func (m *mockBookingService) CreateBookingForUser(ctx context.Context, userID string, eventID uint, status models.BookingStatus) (*models.Booking, error) {
	return m.createBookingForUser(ctx, userID, eventID, status)
}

func (m *mockBookingService) ConfirmSpace(ctx context.Context, bookingID uint) (*models.Booking, error) {
	return m.confirmSpace(ctx, bookingID)
}

func (m *mockBookingService) MarkPaid(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error) {
	return m.markPaid(ctx, actor, bookingID)
}

func (m *mockBookingService) MarkBlockPaid(ctx context.Context, actor service.Actor, blockID uint) error {
	return m.markBlockPaid(ctx, actor, blockID)
}

func (m *mockBookingService) GetBooking(ctx context.Context, actor service.Actor, id uint) (*models.Booking, error) {
	return m.getBooking(ctx, actor, id)
}

func (m *mockBookingService) ListBookings(ctx context.Context, actor service.Actor, history bool) ([]service.BookingInfo, error) {
	return m.listBookings(ctx, actor, history)
}

func (m *mockBookingService) JoinWaitingList(ctx context.Context, actor service.Actor, eventID uint) (bool, error) {
	return m.joinWaitingList(ctx, actor, eventID)
}

func (m *mockBookingService) LeaveWaitingList(ctx context.Context, actor service.Actor, eventID uint) (bool, error) {
	return m.leaveWaitingList(ctx, actor, eventID)
}

func TestCreateBookingHandler_Created(t *testing.T) {
	mock := &mockBookingService{
		createBooking: func(_ context.Context, actor service.Actor, eventID uint) (*service.BookingResult, error) {
			assert.Equal(t, "user-1", actor.ID)
			assert.Equal(t, uint(3), eventID)
			return &service.BookingResult{
				Booking: &models.Booking{ID: 7, EventID: 3, UserID: actor.ID, Status: models.StatusOpen, Cost: 7.5},
			}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"event_id":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestCreateBookingHandler_RebookReturnsOK(t *testing.T) {
	mock := &mockBookingService{
		createBooking: func(_ context.Context, actor service.Actor, eventID uint) (*service.BookingResult, error) {
			return &service.BookingResult{
				Booking:  &models.Booking{ID: 7, EventID: 3, Status: models.StatusOpen, Paid: true},
				Rebooked: true,
			}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"event_id":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending_review":true`)
}

func TestCreateBookingHandler_FullConflict(t *testing.T) {
	mock := &mockBookingService{
		createBooking: func(_ context.Context, _ service.Actor, _ uint) (*service.BookingResult, error) {
			return nil, service.ErrFullyBooked
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"event_id":3}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	err := h.CreateBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestCreateBookingHandler_MissingEventID(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	err := h.CreateBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCancelBookingHandler(t *testing.T) {
	mock := &mockBookingService{
		cancelBooking: func(_ context.Context, actor service.Actor, bookingID uint, cancelBlock bool) ([]models.Booking, error) {
			assert.Equal(t, uint(7), bookingID)
			assert.False(t, cancelBlock)
			return []models.Booking{{ID: 7, Status: models.StatusCancelled}}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodDelete, "/bookings/7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	authenticate(c)

	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
}

func TestCancelBookingHandler_BlockQueryParam(t *testing.T) {
	var gotCancelBlock bool
	mock := &mockBookingService{
		cancelBooking: func(_ context.Context, _ service.Actor, _ uint, cancelBlock bool) ([]models.Booking, error) {
			gotCancelBlock = cancelBlock
			return nil, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodDelete, "/bookings/7?block=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	authenticate(c)

	require.NoError(t, h.CancelBooking(c))
	assert.True(t, gotCancelBlock)
}

func TestCancelBookingHandler_PeriodPast(t *testing.T) {
	mock := &mockBookingService{
		cancelBooking: func(_ context.Context, _ service.Actor, _ uint, _ bool) ([]models.Booking, error) {
			return nil, service.ErrCancellationPeriodPast
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodDelete, "/bookings/7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	authenticate(c)

	err := h.CancelBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCancelBookingHandler_NotFound(t *testing.T) {
	mock := &mockBookingService{
		cancelBooking: func(_ context.Context, _ service.Actor, _ uint, _ bool) ([]models.Booking, error) {
			return nil, service.ErrBookingNotFound
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodDelete, "/bookings/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	authenticate(c)

	err := h.CancelBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestListBookingsHandler(t *testing.T) {
	now := time.Now()
	mock := &mockBookingService{
		listBookings: func(_ context.Context, actor service.Actor, history bool) ([]service.BookingInfo, error) {
			assert.True(t, history)
			return []service.BookingInfo{
				{
					Booking:       models.Booking{ID: 7, Status: models.StatusOpen, DateBooked: now},
					CanCancel:     true,
					OnWaitingList: false,
				},
			}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodGet, "/bookings?history=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	require.NoError(t, h.ListBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_cancel":true`)
}

func TestJoinWaitingListHandler(t *testing.T) {
	mock := &mockBookingService{
		joinWaitingList: func(_ context.Context, _ service.Actor, eventID uint) (bool, error) {
			return true, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/waitinglist/3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	authenticate(c)

	require.NoError(t, h.JoinWaitingList(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestJoinWaitingListHandler_AlreadyOn(t *testing.T) {
	mock := &mockBookingService{
		joinWaitingList: func(_ context.Context, _ service.Actor, _ uint) (bool, error) {
			return false, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/waitinglist/3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	authenticate(c)

	require.NoError(t, h.JoinWaitingList(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateBlockBookingHandler(t *testing.T) {
	mock := &mockBookingService{
		createBlockBooking: func(_ context.Context, _ service.Actor, blockID uint) ([]models.Booking, error) {
			assert.Equal(t, uint(50), blockID)
			return []models.Booking{{ID: 1}, {ID: 2}}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/blocks/50/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("50")
	authenticate(c)

	require.NoError(t, h.CreateBlockBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminCreateBookingHandler_CancelledStatus(t *testing.T) {
	mock := &mockBookingService{
		createBookingForUser: func(_ context.Context, userID string, eventID uint, status models.BookingStatus) (*models.Booking, error) {
			assert.Equal(t, "user-9", userID)
			assert.Equal(t, models.StatusCancelled, status)
			return &models.Booking{ID: 7, UserID: userID, EventID: eventID, Status: status}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	body := `{"user_id":"user-9","event_id":3,"status":"CANCELLED"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c)

	require.NoError(t, h.AdminCreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestConfirmSpaceHandler(t *testing.T) {
	mock := &mockBookingService{
		confirmSpace: func(_ context.Context, bookingID uint) (*models.Booking, error) {
			return &models.Booking{ID: bookingID, Status: models.StatusOpen, Paid: true, PaymentConfirmed: true}, nil
		},
	}
	h := NewBookingHandler(mock)

	e := testEcho()
	req := httptest.NewRequest(http.MethodPost, "/admin/bookings/7/confirm-space", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	authenticate(c)

	require.NoError(t, h.ConfirmSpace(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_confirmed":true`)
}
