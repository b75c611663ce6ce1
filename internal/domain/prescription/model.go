package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medication is a single line item on a prescription.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription is issued by a doctor against one of their appointments.
type Prescription struct {
	ID            uuid.UUID    `json:"id"`
	AppointmentID uuid.UUID    `json:"appointment_id"`
	DoctorID      uuid.UUID    `json:"doctor_id"`
	PatientID     uuid.UUID    `json:"patient_id"`
	Medications   []Medication `json:"medications"`
	Advice        string       `json:"advice,omitempty"`
	ValidUntil    *time.Time   `json:"valid_until,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
