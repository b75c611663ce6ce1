package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the platform.
const (
	RolePatient  = "patient"
	RoleDoctor   = "doctor"
	RoleHospital = "hospital"
	RolePharmacy = "pharmacy"
	RoleAdmin    = "admin"
)

var validRoles = map[string]bool{
	RolePatient:  true,
	RoleDoctor:   true,
	RoleHospital: true,
	RolePharmacy: true,
	RoleAdmin:    true,
}

// ValidRole reports whether role is one of the recognized account roles.
func ValidRole(role string) bool {
	return validRoles[role]
}

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	// DateOfBirth is a YYYY-MM-DD calendar date, not an instant.
	DateOfBirth      string    `json:"date_of_birth,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	BloodGroup       string    `json:"blood_group,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	Verified         bool      `json:"verified"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
