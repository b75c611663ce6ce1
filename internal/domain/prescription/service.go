package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo         Repository
	appointments AppointmentParties
}

func NewService(repo Repository, appointments AppointmentParties) *Service {
	return &Service{repo: repo, appointments: appointments}
}

// CreateInput carries the fields accepted when issuing a prescription.
type CreateInput struct {
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	Medications   []Medication
	Advice        string
}

// Create issues a prescription. Only the doctor the appointment belongs to
// may issue one for it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	if in.AppointmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: appointment_id is required", ErrInvalidInput)
	}
	if len(in.Medications) == 0 {
		return nil, fmt.Errorf("%w: at least one medication is required", ErrInvalidInput)
	}
	for i, m := range in.Medications {
		if m.Name == "" {
			return nil, fmt.Errorf("%w: medication %d: name is required", ErrInvalidInput, i+1)
		}
		if m.Dosage == "" {
			return nil, fmt.Errorf("%w: medication %d: dosage is required", ErrInvalidInput, i+1)
		}
	}

	doctorID, patientID, err := s.appointments.GetAppointmentParties(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if doctorID != in.DoctorID {
		return nil, ErrForbidden
	}

	p := &Prescription{
		AppointmentID: in.AppointmentID,
		DoctorID:      doctorID,
		PatientID:     patientID,
		Medications:   in.Medications,
		Advice:        in.Advice,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a prescription if the actor is a party to it.
func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorRole != "admin" && p.PatientID != actorID && p.DoctorID != actorID {
		return nil, ErrForbidden
	}
	return p, nil
}

// ListForActor returns prescriptions the actor is a party to.
func (s *Service) ListForActor(ctx context.Context, actorID uuid.UUID, actorRole string, limit, offset int) ([]*Prescription, int, error) {
	if actorRole == "doctor" {
		return s.repo.ListByDoctor(ctx, actorID, limit, offset)
	}
	return s.repo.ListByPatient(ctx, actorID, limit, offset)
}
