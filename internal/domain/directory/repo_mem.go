package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory stores used when the server runs without Postgres.

type doctorRepoMem struct {
	mu      sync.RWMutex
	doctors map[uuid.UUID]*Doctor
}

func NewDoctorRepoMem() DoctorRepository {
	return &doctorRepoMem{doctors: make(map[uuid.UUID]*Doctor)}
}

func (r *doctorRepoMem) Create(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *doctorRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *doctorRepoMem) Update(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *doctorRepoMem) List(_ context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Doctor
	for _, d := range r.doctors {
		if filter.Specialization != "" && !strings.EqualFold(d.Specialization, filter.Specialization) {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.HospitalID != uuid.Nil && !affiliatedWith(d, filter.HospitalID) {
			continue
		}
		cp := *d
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start, end := pageWindow(total, limit, offset)
	return matched[start:end], total, nil
}

func (r *doctorRepoMem) CountByHospital(_ context.Context, hospitalID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, d := range r.doctors {
		if affiliatedWith(d, hospitalID) {
			count++
		}
	}
	return count, nil
}

func affiliatedWith(d *Doctor, hospitalID uuid.UUID) bool {
	for _, aff := range d.Affiliations {
		if aff.HospitalID == hospitalID {
			return true
		}
	}
	return false
}

func pageWindow(total, limit, offset int) (int, int) {
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

type hospitalRepoMem struct {
	mu        sync.RWMutex
	hospitals map[uuid.UUID]*Hospital
}

func NewHospitalRepoMem() HospitalRepository {
	return &hospitalRepoMem{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (r *hospitalRepoMem) Create(_ context.Context, h *Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now()
	h.CreatedAt = now
	h.UpdatedAt = now
	cp := *h
	r.hospitals[h.ID] = &cp
	return nil
}

func (r *hospitalRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *hospitalRepoMem) List(_ context.Context, city string, limit, offset int) ([]*Hospital, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Hospital
	for _, h := range r.hospitals {
		if city != "" && !strings.EqualFold(h.City, city) {
			continue
		}
		cp := *h
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start, end := pageWindow(total, limit, offset)
	return matched[start:end], total, nil
}

type pharmacyRepoMem struct {
	mu         sync.RWMutex
	pharmacies map[uuid.UUID]*Pharmacy
}

func NewPharmacyRepoMem() PharmacyRepository {
	return &pharmacyRepoMem{pharmacies: make(map[uuid.UUID]*Pharmacy)}
}

func (r *pharmacyRepoMem) Create(_ context.Context, p *Pharmacy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.pharmacies[p.ID] = &cp
	return nil
}

func (r *pharmacyRepoMem) GetByID(_ context.Context, id uuid.UUID) (*Pharmacy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pharmacies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *pharmacyRepoMem) List(_ context.Context, city string, limit, offset int) ([]*Pharmacy, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Pharmacy
	for _, p := range r.pharmacies {
		if city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start, end := pageWindow(total, limit, offset)
	return matched[start:end], total, nil
}

type labTestRepoMem struct {
	mu    sync.RWMutex
	tests map[uuid.UUID]*LabTest
}

func NewLabTestRepoMem() LabTestRepository {
	return &labTestRepoMem{tests: make(map[uuid.UUID]*LabTest)}
}

func (r *labTestRepoMem) Create(_ context.Context, t *LabTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	r.tests[t.ID] = &cp
	return nil
}

func (r *labTestRepoMem) GetByID(_ context.Context, id uuid.UUID) (*LabTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *labTestRepoMem) List(_ context.Context, category string, limit, offset int) ([]*LabTest, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*LabTest
	for _, t := range r.tests {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	start, end := pageWindow(total, limit, offset)
	return matched[start:end], total, nil
}
