package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

func setupHandler(t *testing.T) (*echo.Echo, uuid.UUID, *auth.TokenIssuer) {
	t.Helper()

	doctorID := uuid.New()
	dir := &mockDirectory{schedules: map[uuid.UUID]*DoctorSchedule{
		doctorID: {
			DoctorID:        doctorID,
			ConsultationFee: 500,
			SlotsByDay:      map[string][]string{"monday": {"09:00", "11:00", "14:00"}},
		},
	}}
	svc := NewService(NewAppointmentRepoMem(), NewTestBookingRepoMem(), dir, &mockCatalog{}, 15, zerolog.Nop())
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	public := e.Group("/api")
	authed := e.Group("/api", auth.JWTMiddleware(issuer))
	NewHandler(svc).RegisterRoutes(public, authed)
	return e, doctorID, issuer
}

func doRequest(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Availability(t *testing.T) {
	e, doctorID, _ := setupHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/doctors/"+doctorID.String()+"/availability?date=2024-06-03", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AvailableSlots []string `json:"availableSlots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.AvailableSlots) != 3 {
		t.Errorf("expected 3 slots, got %v", resp.AvailableSlots)
	}
}

func TestHandler_Availability_MissingDate(t *testing.T) {
	e, doctorID, _ := setupHandler(t)
	rec := doRequest(e, http.MethodGet, "/api/doctors/"+doctorID.String()+"/availability", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Availability_UnknownDoctor(t *testing.T) {
	e, _, _ := setupHandler(t)
	rec := doRequest(e, http.MethodGet, "/api/doctors/"+uuid.NewString()+"/availability?date=2024-06-03", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Book_RequiresAuth(t *testing.T) {
	e, doctorID, _ := setupHandler(t)
	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03","time_slot":"09:00"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_Book_FullFlow(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	body := `{"doctor_id":"` + doctorID.String() + `","date":"2024-06-03","time_slot":"09:00","symptoms":"fever"}`
	rec := doRequest(e, http.MethodPost, "/api/appointments", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.QueuePosition != 1 || appt.EstimatedWaitMinutes != 0 {
		t.Errorf("unexpected queue fields: position=%d wait=%d", appt.QueuePosition, appt.EstimatedWaitMinutes)
	}
	if appt.ConsultationFee != 500 {
		t.Errorf("expected fee 500, got %v", appt.ConsultationFee)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("expected confirmed status, got %s", appt.Status)
	}

	// Same slot again conflicts.
	otherToken, _ := issuer.Issue(uuid.NewString(), "patient")
	rec = doRequest(e, http.MethodPost, "/api/appointments", body, otherToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double booking, got %d: %s", rec.Code, rec.Body.String())
	}

	// Availability no longer lists the booked slot.
	rec = doRequest(e, http.MethodGet, "/api/doctors/"+doctorID.String()+"/availability?date=2024-06-03", "", "")
	var resp struct {
		AvailableSlots []string `json:"availableSlots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode availability: %v", err)
	}
	for _, slot := range resp.AvailableSlots {
		if slot == "09:00" {
			t.Error("booked slot still listed as available")
		}
	}
}

func TestHandler_Book_UnknownDoctor(t *testing.T) {
	e, _, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+uuid.NewString()+`","date":"2024-06-03","time_slot":"09:00"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Book_MissingFields(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_QueueAndStatus(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	patientID := uuid.NewString()
	token, _ := issuer.Issue(patientID, "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03","time_slot":"09:00"}`, token)
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	rec = doRequest(e, http.MethodGet, "/api/appointments/"+appt.ID.String()+"/queue", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var pos QueuePosition
	if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if pos.QueuePosition != 1 || pos.PatientsAhead != 0 {
		t.Errorf("unexpected queue position: %+v", pos)
	}

	// A stranger may not view it.
	strangerToken, _ := issuer.Issue(uuid.NewString(), "patient")
	rec = doRequest(e, http.MethodGet, "/api/appointments/"+appt.ID.String()+"/queue", "", strangerToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}

	// Cancel it.
	rec = doRequest(e, http.MethodPut, "/api/appointments/"+appt.ID.String()+"/status",
		`{"status":"cancelled"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on cancel, got %d: %s", rec.Code, rec.Body.String())
	}

	// Listing shows the cancelled appointment.
	rec = doRequest(e, http.MethodGet, "/api/appointments", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", rec.Code)
	}
	var listResp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listResp.Total != 1 {
		t.Errorf("expected 1 appointment in list, got %d", listResp.Total)
	}
}

func TestHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03","time_slot":"09:00"}`, token)
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	rec = doRequest(e, http.MethodPut, "/api/appointments/"+appt.ID.String()+"/status",
		`{"status":"teleported"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Book_NotesPersisted(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	body := `{"doctor_id":"` + doctorID.String() + `","date":"2024-06-03","time_slot":"09:00","notes":"prefers morning"}`
	rec := doRequest(e, http.MethodPost, "/api/appointments", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.Notes != "prefers morning" {
		t.Errorf("expected notes stored, got %q", appt.Notes)
	}
}

func TestHandler_Complete_RecordsConsultOutcome(t *testing.T) {
	e, doctorID, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03","time_slot":"09:00"}`, token)
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	rec = doRequest(e, http.MethodPut, "/api/appointments/"+appt.ID.String()+"/status",
		`{"status":"completed","diagnosis":"viral fever","follow_up":"review in one week","notes":"hydration advised"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var done Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if done.Diagnosis != "viral fever" || done.FollowUp != "review in one week" || done.Notes != "hydration advised" {
		t.Errorf("consult outcome not recorded: %+v", done)
	}
}

// brokenAppointmentRepo fails every call the way an unreachable database
// would.
type brokenAppointmentRepo struct{}

var errStoreDown = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (r *brokenAppointmentRepo) Create(context.Context, *Appointment) error { return errStoreDown }
func (r *brokenAppointmentRepo) GetByID(context.Context, uuid.UUID) (*Appointment, error) {
	return nil, errStoreDown
}
func (r *brokenAppointmentRepo) Update(context.Context, *Appointment) error { return errStoreDown }
func (r *brokenAppointmentRepo) ListByPatient(context.Context, uuid.UUID, int, int) ([]*Appointment, int, error) {
	return nil, 0, errStoreDown
}
func (r *brokenAppointmentRepo) ListByDoctor(context.Context, uuid.UUID, int, int) ([]*Appointment, int, error) {
	return nil, 0, errStoreDown
}
func (r *brokenAppointmentRepo) ListActiveByDoctorDate(context.Context, uuid.UUID, string) ([]*Appointment, error) {
	return nil, errStoreDown
}
func (r *brokenAppointmentRepo) ExistsActive(context.Context, uuid.UUID, string, string) (bool, error) {
	return false, errStoreDown
}

func setupBrokenHandler(t *testing.T) (*echo.Echo, uuid.UUID, *auth.TokenIssuer) {
	t.Helper()

	doctorID := uuid.New()
	dir := &mockDirectory{schedules: map[uuid.UUID]*DoctorSchedule{
		doctorID: {
			DoctorID:        doctorID,
			ConsultationFee: 500,
			SlotsByDay:      map[string][]string{"monday": {"09:00", "11:00", "14:00"}},
		},
	}}
	svc := NewService(&brokenAppointmentRepo{}, NewTestBookingRepoMem(), dir, &mockCatalog{}, 15, zerolog.Nop())
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	public := e.Group("/api")
	authed := e.Group("/api", auth.JWTMiddleware(issuer))
	NewHandler(svc).RegisterRoutes(public, authed)
	return e, doctorID, issuer
}

func TestHandler_Availability_StoreFailureIs500(t *testing.T) {
	e, doctorID, _ := setupBrokenHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/doctors/"+doctorID.String()+"/availability?date=2024-06-03", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("internal error detail leaked to client: %s", rec.Body.String())
	}
}

func TestHandler_Book_StoreFailureIs500(t *testing.T) {
	e, doctorID, issuer := setupBrokenHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodPost, "/api/appointments",
		`{"doctor_id":"`+doctorID.String()+`","date":"2024-06-03","time_slot":"09:00"}`, token)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("internal error detail leaked to client: %s", rec.Body.String())
	}
}

func TestHandler_Get_StoreFailureIs500(t *testing.T) {
	e, _, issuer := setupBrokenHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodGet, "/api/appointments/"+uuid.NewString(), "", token)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	e, _, issuer := setupHandler(t)
	token, _ := issuer.Issue(uuid.NewString(), "patient")

	rec := doRequest(e, http.MethodGet, "/api/appointments/"+uuid.NewString(), "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
