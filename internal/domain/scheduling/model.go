package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

var validStatuses = map[Status]bool{
	StatusPending: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

// ValidStatus reports whether s names a known appointment status.
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// Active reports whether the appointment still holds its slot and a place in
// the day's queue.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// transitions lists the allowed status moves.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether an appointment may move from one status to
// another. Completed, cancelled and no-show are terminal.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Appointment types.
const (
	TypeInPerson = "in-person"
	TypeOnline   = "online"
)

// Payment states. Bookings start unpaid; settlement happens at the desk.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Appointment is a booked consultation slot. QueuePosition is assigned once
// at booking and never changes; EstimatedWaitMinutes is refreshed when
// earlier same-day appointments cancel.
type Appointment struct {
	ID                   uuid.UUID `json:"id"`
	PatientID            uuid.UUID `json:"patient_id"`
	DoctorID             uuid.UUID `json:"doctor_id"`
	HospitalID           uuid.UUID `json:"hospital_id,omitempty"`
	Date                 string    `json:"date"`
	TimeSlot             string    `json:"time_slot"`
	Type                 string    `json:"type"`
	Status               Status    `json:"status"`
	Symptoms             string    `json:"symptoms,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	Diagnosis            string    `json:"diagnosis,omitempty"`
	FollowUp             string    `json:"follow_up,omitempty"`
	QueuePosition        int       `json:"queue_position"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
	ConsultationFee      float64   `json:"consultation_fee"`
	PaymentStatus        string    `json:"payment_status,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TestBooking is a lab test reservation. Price is snapshotted from the
// catalog at booking time.
type TestBooking struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	TestID         uuid.UUID `json:"test_id"`
	Date           string    `json:"date"`
	HomeCollection bool      `json:"home_collection"`
	Address        string    `json:"address,omitempty"`
	Status         Status    `json:"status"`
	Price          float64   `json:"price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
