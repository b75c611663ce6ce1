package directory

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEntry lists the bookable slots a doctor offers on one weekday.
// Day is a lowercase weekday name ("sunday" through "saturday").
type ScheduleEntry struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// Affiliation ties a doctor to a hospital with a weekly schedule at that site.
type Affiliation struct {
	HospitalID uuid.UUID       `json:"hospital_id"`
	Schedule   []ScheduleEntry `json:"schedule"`
}

// Doctor is a provider profile. A doctor may practice at several hospitals,
// each with its own weekly schedule.
type Doctor struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"user_id,omitempty"`
	Name               string        `json:"name"`
	Specialization     string        `json:"specialization"`
	Qualifications     []string      `json:"qualifications,omitempty"`
	ExperienceYears    int           `json:"experience_years"`
	RegistrationNumber string        `json:"registration_number,omitempty"`
	ConsultationFee    float64       `json:"consultation_fee"`
	Rating             float64       `json:"rating"`
	ReviewCount        int           `json:"review_count"`
	About              string        `json:"about,omitempty"`
	OnlineConsultation bool          `json:"online_consultation"`
	Affiliations       []Affiliation `json:"affiliations"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// SlotsByDay flattens the doctor's affiliations into a weekday name to slots
// map. Slots from different hospitals are concatenated in affiliation order
// and duplicates are kept, since each affiliation is a distinct sitting.
func (d *Doctor) SlotsByDay() map[string][]string {
	out := make(map[string][]string)
	for _, aff := range d.Affiliations {
		for _, entry := range aff.Schedule {
			out[entry.Day] = append(out[entry.Day], entry.Slots...)
		}
	}
	return out
}

// Hospital is a care facility in the directory.
type Hospital struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Specialty  string    `json:"specialty,omitempty"`
	Rating     float64   `json:"rating"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Phone      string    `json:"phone,omitempty"`
	Facilities []string  `json:"facilities,omitempty"`
	// DoctorCount is derived from affiliations at read time, never stored.
	DoctorCount int       `json:"doctor_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Pharmacy is a dispensary in the directory.
type Pharmacy struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Rating           float64   `json:"rating"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	Phone            string    `json:"phone,omitempty"`
	DeliveryEstimate string    `json:"delivery_estimate,omitempty"`
	Open24x7         bool      `json:"open_24x7"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LabTest is a diagnostic test offered for booking.
type LabTest struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	Price           float64   `json:"price"`
	HomeCollection  bool      `json:"home_collection"`
	FastingRequired bool      `json:"fasting_required"`
	ReportTime      string    `json:"report_time,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
