package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

func setupEcho(t *testing.T) (*echo.Echo, *Service, *auth.TokenIssuer) {
	t.Helper()
	svc := newTestService()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	public := e.Group("/api")
	authed := e.Group("/api", auth.JWTMiddleware(issuer))
	NewHandler(svc).RegisterRoutes(public, authed)
	return e, svc, issuer
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

func TestHandler_ListDoctors_Public(t *testing.T) {
	e, svc, _ := setupEcho(t)

	d := Doctor{Name: "Dr. Rao", Specialization: "cardiology", ConsultationFee: 500}
	if err := svc.CreateDoctor(context.Background(), &d); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	rec := doRequest(e, http.MethodGet, "/api/doctors", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []Doctor `json:"data"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected 1 doctor, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	e, _, _ := setupEcho(t)
	rec := doRequest(e, http.MethodGet, "/api/doctors/"+uuid.NewString(), "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetDoctor_BadID(t *testing.T) {
	e, _, _ := setupEcho(t)
	rec := doRequest(e, http.MethodGet, "/api/doctors/not-a-uuid", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_CreateDoctor_RequiresAuth(t *testing.T) {
	e, _, _ := setupEcho(t)
	rec := doRequest(e, http.MethodPost, "/api/doctors",
		`{"name":"Dr. Rao","specialization":"cardiology"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_CreateDoctor_RequiresRole(t *testing.T) {
	e, _, issuer := setupEcho(t)

	patientToken, _ := issuer.Issue(uuid.NewString(), "patient")
	rec := doRequest(e, http.MethodPost, "/api/doctors",
		`{"name":"Dr. Rao","specialization":"cardiology"}`, patientToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient role, got %d", rec.Code)
	}

	adminToken, _ := issuer.Issue(uuid.NewString(), "admin")
	rec = doRequest(e, http.MethodPost, "/api/doctors",
		`{"name":"Dr. Rao","specialization":"cardiology","consultation_fee":500}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin role, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_UpdateSchedule(t *testing.T) {
	e, svc, issuer := setupEcho(t)

	d := Doctor{Name: "Dr. Rao", Specialization: "cardiology"}
	if err := svc.CreateDoctor(context.Background(), &d); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	token, _ := issuer.Issue(uuid.NewString(), "doctor")
	body := `{"affiliations":[{"hospital_id":"` + uuid.NewString() + `","schedule":[{"day":"monday","slots":["09:00","11:00"]}]}]}`
	rec := doRequest(e, http.MethodPut, "/api/doctors/"+d.ID.String()+"/schedule", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(updated.Affiliations) != 1 {
		t.Fatalf("expected 1 affiliation, got %d", len(updated.Affiliations))
	}
}

func TestHandler_UpdateSchedule_InvalidDay(t *testing.T) {
	e, svc, issuer := setupEcho(t)

	d := Doctor{Name: "Dr. Rao", Specialization: "cardiology"}
	if err := svc.CreateDoctor(context.Background(), &d); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	token, _ := issuer.Issue(uuid.NewString(), "doctor")
	body := `{"affiliations":[{"hospital_id":"` + uuid.NewString() + `","schedule":[{"day":"caturday","slots":["09:00"]}]}]}`
	rec := doRequest(e, http.MethodPut, "/api/doctors/"+d.ID.String()+"/schedule", body, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Hospitals(t *testing.T) {
	e, _, issuer := setupEcho(t)

	adminToken, _ := issuer.Issue(uuid.NewString(), "admin")
	rec := doRequest(e, http.MethodPost, "/api/hospitals",
		`{"name":"City Hospital","city":"Pune","facilities":["icu","pharmacy"]}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/api/hospitals?city=Pune", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 hospital in Pune, got %d", resp.Total)
	}
}

func TestHandler_LabTests_PublicList(t *testing.T) {
	e, svc, _ := setupEcho(t)

	lt := LabTest{Name: "CBC", Category: "blood", Price: 300}
	if err := svc.CreateLabTest(context.Background(), &lt); err != nil {
		t.Fatalf("seed lab test: %v", err)
	}

	rec := doRequest(e, http.MethodGet, "/api/tests", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
