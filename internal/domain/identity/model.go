package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles form a closed set. Anything else is rejected at registration.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor
}

// User maps to the users table. The password hash never leaves the server.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           string    `db:"role" json:"role"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// View is the reduced representation embedded in resources owned by the
// counterpart (appointment and prescription listings, the doctor picker).
type View struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization *string   `json:"specialization,omitempty"`
}

func (u *User) ToView() View {
	return View{ID: u.ID, Name: u.Name, Specialization: u.Specialization}
}
