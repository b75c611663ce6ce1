package directory

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var validDays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

var slotPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidSlot reports whether s is a 24-hour "HH:MM" time.
func ValidSlot(s string) bool {
	return slotPattern.MatchString(s)
}

type Service struct {
	doctors    DoctorRepository
	hospitals  HospitalRepository
	pharmacies PharmacyRepository
	labTests   LabTestRepository
}

func NewService(doctors DoctorRepository, hospitals HospitalRepository, pharmacies PharmacyRepository, labTests LabTestRepository) *Service {
	return &Service{doctors: doctors, hospitals: hospitals, pharmacies: pharmacies, labTests: labTests}
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if d.Specialization == "" {
		return fmt.Errorf("%w: specialization is required", ErrInvalidInput)
	}
	if d.ConsultationFee < 0 {
		return fmt.Errorf("%w: consultation_fee must not be negative", ErrInvalidInput)
	}
	if err := validateAffiliations(d.Affiliations); err != nil {
		return err
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, filter, limit, offset)
}

// UpdateSchedule replaces a doctor's affiliations and weekly schedules.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, affiliations []Affiliation) (*Doctor, error) {
	if err := validateAffiliations(affiliations); err != nil {
		return nil, err
	}
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Affiliations = affiliations
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func validateAffiliations(affiliations []Affiliation) error {
	for _, aff := range affiliations {
		if aff.HospitalID == uuid.Nil {
			return fmt.Errorf("%w: affiliation hospital_id is required", ErrInvalidInput)
		}
		seenDays := make(map[string]bool)
		for _, entry := range aff.Schedule {
			if !validDays[entry.Day] {
				return fmt.Errorf("%w: invalid day: %s", ErrInvalidInput, entry.Day)
			}
			if seenDays[entry.Day] {
				return fmt.Errorf("%w: duplicate day in schedule: %s", ErrInvalidInput, entry.Day)
			}
			seenDays[entry.Day] = true

			seenSlots := make(map[string]bool)
			for _, slot := range entry.Slots {
				if !ValidSlot(slot) {
					return fmt.Errorf("%w: invalid slot time: %s", ErrInvalidInput, slot)
				}
				if seenSlots[slot] {
					return fmt.Errorf("%w: duplicate slot %s on %s", ErrInvalidInput, slot, entry.Day)
				}
				seenSlots[slot] = true
			}
		}
	}
	return nil
}

// -- Hospital --

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.hospitals.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

// ListHospitals returns hospitals with the number of affiliated doctors
// filled in for each.
func (s *Service) ListHospitals(ctx context.Context, city string, limit, offset int) ([]*Hospital, int, error) {
	hospitals, total, err := s.hospitals.List(ctx, city, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, h := range hospitals {
		count, err := s.doctors.CountByHospital(ctx, h.ID)
		if err != nil {
			return nil, 0, err
		}
		h.DoctorCount = count
	}
	return hospitals, total, nil
}

// -- Pharmacy --

func (s *Service) CreatePharmacy(ctx context.Context, p *Pharmacy) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.pharmacies.Create(ctx, p)
}

func (s *Service) GetPharmacy(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	return s.pharmacies.GetByID(ctx, id)
}

func (s *Service) ListPharmacies(ctx context.Context, city string, limit, offset int) ([]*Pharmacy, int, error) {
	return s.pharmacies.List(ctx, city, limit, offset)
}

// -- LabTest --

func (s *Service) CreateLabTest(ctx context.Context, t *LabTest) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if t.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return s.labTests.Create(ctx, t)
}

func (s *Service) GetLabTest(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return s.labTests.GetByID(ctx, id)
}

func (s *Service) ListLabTests(ctx context.Context, category string, limit, offset int) ([]*LabTest, int, error) {
	return s.labTests.List(ctx, category, limit, offset)
}
