package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("prescription not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrForbidden           = errors.New("not allowed")

	// ErrInvalidInput wraps request-shaped failures so handlers can
	// separate caller mistakes (400) from store faults (500).
	ErrInvalidInput = errors.New("invalid input")
)

// Repository stores prescriptions.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}

// AppointmentParties identifies who an appointment belongs to. Implemented
// by an adapter over the scheduling domain.
type AppointmentParties interface {
	GetAppointmentParties(ctx context.Context, appointmentID uuid.UUID) (doctorID, patientID uuid.UUID, err error)
}
