package prescription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// repoMem is an in-memory store used when the server runs without Postgres.
type repoMem struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Prescription
	order []uuid.UUID
}

func NewRepoMem() Repository {
	return &repoMem{byID: make(map[uuid.UUID]*Prescription)}
}

func (r *repoMem) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	cp.Medications = append([]Medication(nil), p.Medications...)
	r.byID[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Medications = append([]Medication(nil), p.Medications...)
	return &cp, nil
}

func (r *repoMem) list(match func(*Prescription) bool, limit, offset int) ([]*Prescription, int) {
	var matched []*Prescription
	for _, id := range r.order {
		p := r.byID[id]
		if match(p) {
			cp := *p
			cp.Medications = append([]Medication(nil), p.Medications...)
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
	return matched[start:end], total
}

func (r *repoMem) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(p *Prescription) bool { return p.PatientID == patientID }, limit, offset)
	return items, total, nil
}

func (r *repoMem) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items, total := r.list(func(p *Prescription) bool { return p.DoctorID == doctorID }, limit, offset)
	return items, total, nil
}
