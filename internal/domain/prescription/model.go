package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
)

// Medicine is a single line item on a prescription. Stored as JSONB.
type Medicine struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

// Prescription maps to the prescriptions table. AppointmentID is optional:
// prescriptions may be issued outside of a booked appointment.
type Prescription struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointmentId,omitempty"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctorId"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	Medicines     []Medicine `db:"medicines" json:"medicines"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// Enriched pairs a prescription with the counterpart's reduced view.
type Enriched struct {
	Prescription
	Patient *identity.View `json:"patient,omitempty"`
	Doctor  *identity.View `json:"doctor,omitempty"`
}
