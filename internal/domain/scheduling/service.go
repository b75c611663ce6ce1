package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// weekdayName returns the lowercase weekday name for a YYYY-MM-DD date.
func weekdayName(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidInput, date)
	}
	return strings.ToLower(t.Weekday().String()), nil
}

type Service struct {
	appointments AppointmentRepository
	testBookings TestBookingRepository
	doctors      DoctorDirectory
	catalog      LabTestCatalog
	slotMinutes  int
	bookingLocks *keyMutex
	logger       zerolog.Logger
}

func NewService(appointments AppointmentRepository, testBookings TestBookingRepository,
	doctors DoctorDirectory, catalog LabTestCatalog, slotMinutes int, logger zerolog.Logger) *Service {
	if slotMinutes <= 0 {
		slotMinutes = 15
	}
	return &Service{
		appointments: appointments,
		testBookings: testBookings,
		doctors:      doctors,
		catalog:      catalog,
		slotMinutes:  slotMinutes,
		bookingLocks: newKeyMutex(),
		logger:       logger,
	}
}

// AvailableSlots returns the doctor's open slots for a calendar date: the
// weekday's offered slots across all affiliations, minus any time already
// held by a pending or confirmed appointment that day. Order follows the
// affiliation order of the doctor profile.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	day, err := weekdayName(date)
	if err != nil {
		return nil, err
	}

	sched, err := s.doctors.GetDoctorSchedule(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	offered := sched.SlotsByDay[day]
	if len(offered) == 0 {
		return []string{}, nil
	}

	active, err := s.appointments.ListActiveByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	taken := make(map[string]bool, len(active))
	for _, a := range active {
		taken[a.TimeSlot] = true
	}

	available := make([]string, 0, len(offered))
	for _, slot := range offered {
		if !taken[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// BookInput carries the fields accepted when booking an appointment.
type BookInput struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	HospitalID uuid.UUID
	Date       string
	TimeSlot   string
	Type       string
	Symptoms   string
	Notes      string
}

// Book reserves a slot and assigns the patient a queue position for the day.
// The position counts every pending or confirmed appointment the doctor has
// on that date, whatever the slot, so it reflects arrival order rather than
// slot order. Booking for one doctor and date is serialized; the partial
// unique index in the postgres store backstops the check across instances.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if in.TimeSlot == "" {
		return nil, fmt.Errorf("%w: time_slot is required", ErrInvalidInput)
	}
	day, err := weekdayName(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = TypeInPerson
	}
	if in.Type != TypeInPerson && in.Type != TypeOnline {
		return nil, fmt.Errorf("%w: invalid appointment type: %s", ErrInvalidInput, in.Type)
	}

	sched, err := s.doctors.GetDoctorSchedule(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	offered := false
	for _, slot := range sched.SlotsByDay[day] {
		if slot == in.TimeSlot {
			offered = true
			break
		}
	}
	if !offered {
		return nil, fmt.Errorf("%w: doctor has no %s slot on %s", ErrInvalidInput, in.TimeSlot, day)
	}

	lockKey := in.DoctorID.String() + "|" + in.Date
	s.bookingLocks.Lock(lockKey)
	defer s.bookingLocks.Unlock(lockKey)

	held, err := s.appointments.ExistsActive(ctx, in.DoctorID, in.Date, in.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if held {
		return nil, ErrSlotUnavailable
	}

	active, err := s.appointments.ListActiveByDoctorDate(ctx, in.DoctorID, in.Date)
	if err != nil {
		return nil, fmt.Errorf("count queue: %w", err)
	}

	position := len(active) + 1
	appt := &Appointment{
		PatientID:            in.PatientID,
		DoctorID:             in.DoctorID,
		HospitalID:           in.HospitalID,
		Date:                 in.Date,
		TimeSlot:             in.TimeSlot,
		Type:                 in.Type,
		Status:               StatusConfirmed,
		Symptoms:             in.Symptoms,
		Notes:                in.Notes,
		QueuePosition:        position,
		EstimatedWaitMinutes: (position - 1) * s.slotMinutes,
		ConsultationFee:      sched.ConsultationFee,
		PaymentStatus:        PaymentUnpaid,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", in.DoctorID.String()).
		Str("date", in.Date).
		Str("time_slot", in.TimeSlot).
		Int("queue_position", position).
		Msg("appointment booked")

	return appt, nil
}

// Get returns an appointment if the actor owns it (or is an admin).
func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayAccess(a, actorID, actorRole) {
		return nil, ErrForbidden
	}
	return a, nil
}

func mayAccess(a *Appointment, actorID uuid.UUID, actorRole string) bool {
	if actorRole == "admin" {
		return true
	}
	return a.PatientID == actorID || a.DoctorID == actorID
}

// ListForActor returns the actor's own appointments: bookings for patients,
// the day sheet for doctors.
func (s *Service) ListForActor(ctx context.Context, actorID uuid.UUID, actorRole string, limit, offset int) ([]*Appointment, int, error) {
	if actorRole == "doctor" {
		return s.appointments.ListByDoctor(ctx, actorID, limit, offset)
	}
	return s.appointments.ListByPatient(ctx, actorID, limit, offset)
}

// StatusUpdate carries a lifecycle move plus the consult outcome the
// doctor may record alongside it. Empty fields leave the stored value
// untouched.
type StatusUpdate struct {
	Status    Status
	Notes     string
	Diagnosis string
	FollowUp  string
}

// UpdateStatus moves an appointment through its lifecycle. A cancellation
// frees the slot and refreshes the wait estimates of everyone behind.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusUpdate, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	if !ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, in.Status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayAccess(a, actorID, actorRole) {
		return nil, ErrForbidden
	}
	if !CanTransition(a.Status, in.Status) {
		return nil, fmt.Errorf("%w: cannot move appointment from %s to %s", ErrInvalidInput, a.Status, in.Status)
	}

	a.Status = in.Status
	if in.Notes != "" {
		a.Notes = in.Notes
	}
	if in.Diagnosis != "" {
		a.Diagnosis = in.Diagnosis
	}
	if in.FollowUp != "" {
		a.FollowUp = in.FollowUp
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}

	if in.Status == StatusCancelled {
		if err := s.RecomputeWaitEstimates(ctx, a.DoctorID, a.Date); err != nil {
			s.logger.Error().Err(err).
				Str("doctor_id", a.DoctorID.String()).
				Str("date", a.Date).
				Msg("recompute wait estimates after cancellation")
		}
	}

	return a, nil
}

// RecomputeWaitEstimates refreshes estimated waits for a doctor's remaining
// active appointments on a date. Queue positions are immutable; the estimate
// is based on each appointment's rank among the survivors.
func (s *Service) RecomputeWaitEstimates(ctx context.Context, doctorID uuid.UUID, date string) error {
	active, err := s.appointments.ListActiveByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("list active appointments: %w", err)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].QueuePosition < active[j].QueuePosition
	})

	for rank, a := range active {
		estimate := rank * s.slotMinutes
		if a.EstimatedWaitMinutes == estimate {
			continue
		}
		a.EstimatedWaitMinutes = estimate
		if err := s.appointments.Update(ctx, a); err != nil {
			return fmt.Errorf("update appointment %s: %w", a.ID, err)
		}
	}
	return nil
}

// QueuePosition describes where an appointment stands in its day's queue.
type QueuePosition struct {
	AppointmentID        uuid.UUID `json:"appointment_id"`
	Status               Status    `json:"status"`
	QueuePosition        int       `json:"queue_position"`
	PatientsAhead        int       `json:"patients_ahead"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
}

// QueueStatus reports the live queue standing for an appointment.
func (s *Service) QueueStatus(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*QueuePosition, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayAccess(a, actorID, actorRole) {
		return nil, ErrForbidden
	}

	ahead := 0
	if a.Status.Active() {
		active, err := s.appointments.ListActiveByDoctorDate(ctx, a.DoctorID, a.Date)
		if err != nil {
			return nil, fmt.Errorf("list active appointments: %w", err)
		}
		for _, other := range active {
			if other.ID != a.ID && other.QueuePosition < a.QueuePosition {
				ahead++
			}
		}
	}

	return &QueuePosition{
		AppointmentID:        a.ID,
		Status:               a.Status,
		QueuePosition:        a.QueuePosition,
		PatientsAhead:        ahead,
		EstimatedWaitMinutes: a.EstimatedWaitMinutes,
	}, nil
}

// BookTestInput carries the fields accepted when booking a lab test.
type BookTestInput struct {
	PatientID      uuid.UUID
	TestID         uuid.UUID
	Date           string
	HomeCollection bool
	Address        string
}

// BookTest reserves a lab test, snapshotting the catalog price.
func (s *Service) BookTest(ctx context.Context, in BookTestInput) (*TestBooking, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if in.TestID == uuid.Nil {
		return nil, fmt.Errorf("%w: test_id is required", ErrInvalidInput)
	}
	if _, err := weekdayName(in.Date); err != nil {
		return nil, err
	}

	info, err := s.catalog.GetLabTest(ctx, in.TestID)
	if err != nil {
		return nil, err
	}
	if in.HomeCollection && !info.HomeCollection {
		return nil, fmt.Errorf("%w: test does not offer home collection", ErrInvalidInput)
	}
	if in.HomeCollection && in.Address == "" {
		return nil, fmt.Errorf("%w: address is required for home collection", ErrInvalidInput)
	}

	booking := &TestBooking{
		PatientID:      in.PatientID,
		TestID:         in.TestID,
		Date:           in.Date,
		HomeCollection: in.HomeCollection,
		Address:        in.Address,
		Status:         StatusPending,
		Price:          info.Price,
	}
	if err := s.testBookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListTestBookings returns the patient's lab test reservations.
func (s *Service) ListTestBookings(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error) {
	return s.testBookings.ListByPatient(ctx, patientID, limit, offset)
}
