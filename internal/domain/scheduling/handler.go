package scheduling

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
	"github.com/healthconnect/healthconnect/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the booking endpoints. Availability is public so
// patients can browse before signing in; everything else needs a token.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/doctors/:id/availability", h.Availability)

	authed.POST("/appointments", h.Book)
	authed.GET("/appointments", h.List)
	authed.GET("/appointments/:id", h.Get)
	authed.GET("/appointments/:id/queue", h.Queue)
	authed.PUT("/appointments/:id/status", h.UpdateStatus)
	authed.POST("/tests/book", h.BookTest)
	authed.GET("/tests/bookings", h.ListTestBookings)
}

func (h *Handler) Availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}

	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id":      doctorID,
		"date":           date,
		"availableSlots": slots,
	})
}

type bookRequest struct {
	DoctorID   uuid.UUID `json:"doctor_id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Date       string    `json:"date"`
	TimeSlot   string    `json:"time_slot"`
	Type       string    `json:"type"`
	Symptoms   string    `json:"symptoms"`
	Notes      string    `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.Book(c.Request().Context(), BookInput{
		PatientID:  patientID,
		DoctorID:   req.DoctorID,
		HospitalID: req.HospitalID,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Type:       req.Type,
		Symptoms:   req.Symptoms,
		Notes:      req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		case errors.Is(err, ErrSlotUnavailable):
			return echo.NewHTTPError(http.StatusConflict, "slot unavailable")
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) List(c echo.Context) error {
	actorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	role := auth.RoleFromContext(c.Request().Context())

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForActor(c.Request().Context(), actorID, role, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	appt, err := h.svc.Get(c.Request().Context(), id, actorID, auth.RoleFromContext(c.Request().Context()))
	if err != nil {
		return mapAppointmentError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Queue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	pos, err := h.svc.QueueStatus(c.Request().Context(), id, actorID, auth.RoleFromContext(c.Request().Context()))
	if err != nil {
		return mapAppointmentError(err)
	}
	return c.JSON(http.StatusOK, pos)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var req struct {
		Status    Status `json:"status"`
		Notes     string `json:"notes"`
		Diagnosis string `json:"diagnosis"`
		FollowUp  string `json:"follow_up"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.UpdateStatus(c.Request().Context(), id, StatusUpdate{
		Status:    req.Status,
		Notes:     req.Notes,
		Diagnosis: req.Diagnosis,
		FollowUp:  req.FollowUp,
	}, actorID, auth.RoleFromContext(c.Request().Context()))
	if err != nil {
		return mapAppointmentError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type bookTestRequest struct {
	TestID         uuid.UUID `json:"test_id"`
	Date           string    `json:"date"`
	HomeCollection bool      `json:"home_collection"`
	Address        string    `json:"address"`
}

func (h *Handler) BookTest(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var req bookTestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking, err := h.svc.BookTest(c.Request().Context(), BookTestInput{
		PatientID:      patientID,
		TestID:         req.TestID,
		Date:           req.Date,
		HomeCollection: req.HomeCollection,
		Address:        req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTestNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "test not found")
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.JSON(http.StatusCreated, booking)
}

func (h *Handler) ListTestBookings(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTestBookings(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// mapAppointmentError translates service errors to HTTP. Anything outside
// the known sentinels is a store fault and must not leak its message.
func mapAppointmentError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not allowed")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
