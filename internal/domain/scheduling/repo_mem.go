package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory stores used when the server runs without Postgres.

type appointmentRepoMem struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Appointment
	order []uuid.UUID
}

func NewAppointmentRepoMem() AppointmentRepository {
	return &appointmentRepoMem{byID: make(map[uuid.UUID]*Appointment)}
}

func (r *appointmentRepoMem) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		other := r.byID[id]
		if other.DoctorID == a.DoctorID && other.Date == a.Date &&
			other.TimeSlot == a.TimeSlot && other.Status.Active() {
			return ErrSlotUnavailable
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	r.byID[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *appointmentRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *appointmentRepoMem) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *appointmentRepoMem) list(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int) {
	var matched []*Appointment
	for _, id := range r.order {
		a := r.byID[id]
		if match(a) {
			cp := *a
			matched = append(matched, &cp)
		}
	}

	// Most recent bookings first
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func (r *appointmentRepoMem) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset)
	return items, total, nil
}

func (r *appointmentRepoMem) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
	return items, total, nil
}

func (r *appointmentRepoMem) ListActiveByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Appointment
	for _, id := range r.order {
		a := r.byID[id]
		if a.DoctorID == doctorID && a.Date == date && a.Status.Active() {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].QueuePosition < matched[j].QueuePosition
	})
	return matched, nil
}

func (r *appointmentRepoMem) ExistsActive(_ context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		a := r.byID[id]
		if a.DoctorID == doctorID && a.Date == date && a.TimeSlot == timeSlot && a.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

type testBookingRepoMem struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*TestBooking
	order []uuid.UUID
}

func NewTestBookingRepoMem() TestBookingRepository {
	return &testBookingRepoMem{byID: make(map[uuid.UUID]*TestBooking)}
}

func (r *testBookingRepoMem) Create(_ context.Context, b *TestBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	r.byID[b.ID] = &cp
	r.order = append(r.order, b.ID)
	return nil
}

func (r *testBookingRepoMem) GetByID(_ context.Context, id uuid.UUID) (*TestBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *testBookingRepoMem) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*TestBooking
	for _, id := range r.order {
		b := r.byID[id]
		if b.PatientID == patientID {
			cp := *b
			matched = append(matched, &cp)
		}
	}

	total := len(matched)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}
