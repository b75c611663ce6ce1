package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrTestNotFound    = errors.New("test not found")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrForbidden       = errors.New("not allowed")

	// ErrInvalidInput wraps every request-shaped failure so handlers can
	// separate caller mistakes (400) from store faults (500).
	ErrInvalidInput = errors.New("invalid input")
)

// AppointmentRepository stores appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListActiveByDoctorDate returns the doctor's pending and confirmed
	// appointments for a calendar date, ordered by queue position.
	ListActiveByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)
	// ExistsActive reports whether an active appointment already holds the
	// given doctor/date/slot combination.
	ExistsActive(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error)
}

// TestBookingRepository stores lab test reservations.
type TestBookingRepository interface {
	Create(ctx context.Context, b *TestBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestBooking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error)
}

// DoctorSchedule is the slice of the doctor profile the allocator needs.
type DoctorSchedule struct {
	DoctorID        uuid.UUID
	ConsultationFee float64
	// SlotsByDay maps lowercase weekday names to the slot times the doctor
	// offers that day, concatenated across hospital affiliations.
	SlotsByDay map[string][]string
}

// DoctorDirectory resolves doctor schedules. Implemented by an adapter over
// the directory domain.
type DoctorDirectory interface {
	GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*DoctorSchedule, error)
}

// LabTestInfo is the slice of the catalog entry needed to book a test.
type LabTestInfo struct {
	TestID         uuid.UUID
	Price          float64
	HomeCollection bool
}

// LabTestCatalog resolves bookable lab tests. Implemented by an adapter over
// the directory domain.
type LabTestCatalog interface {
	GetLabTest(ctx context.Context, testID uuid.UUID) (*LabTestInfo, error)
}
