package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput wraps request-shaped failures so handlers can
	// separate caller mistakes (400) from store faults (500).
	ErrInvalidInput = errors.New("invalid input")
)

// DoctorFilter narrows doctor searches. Zero values match everything.
type DoctorFilter struct {
	Specialization string
	HospitalID     uuid.UUID
	Name           string
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error)
	// CountByHospital returns how many doctors list the hospital among
	// their affiliations.
	CountByHospital(ctx context.Context, hospitalID uuid.UUID) (int, error)
}

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	List(ctx context.Context, city string, limit, offset int) ([]*Hospital, int, error)
}

type PharmacyRepository interface {
	Create(ctx context.Context, p *Pharmacy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
	List(ctx context.Context, city string, limit, offset int) ([]*Pharmacy, int, error)
}

type LabTestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	List(ctx context.Context, category string, limit, offset int) ([]*LabTest, int, error)
}
