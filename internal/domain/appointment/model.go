package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// transitions is the complete lifecycle. Rejected and completed are terminal.
var transitions = map[string]map[string]bool{
	StatusPending:   {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusCompleted: true},
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Appointment maps to the appointments table. Date carries the day; TimeSlot
// holds the 24h "HH:MM" slot within it.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patientId"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctorId"`
	Date            time.Time `db:"date" json:"date"`
	TimeSlot        string    `db:"time_slot" json:"timeSlot"`
	Reason          *string   `db:"reason" json:"reason,omitempty"`
	Status          string    `db:"status" json:"status"`
	DoctorComment   *string   `db:"doctor_comment" json:"doctorComment,omitempty"`
	ClinicAddress   *string   `db:"clinic_address" json:"clinicAddress,omitempty"`
	ClinicPhone     *string   `db:"clinic_phone" json:"clinicPhone,omitempty"`
	PatientNotified bool      `db:"patient_notified" json:"patientNotified"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// StartTime combines Date and TimeSlot into a single instant.
func (a *Appointment) StartTime() time.Time {
	hour, minute := parseSlot(a.TimeSlot)
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), hour, minute, 0, 0, a.Date.Location())
}

func parseSlot(slot string) (hour, minute int) {
	if len(slot) != 5 {
		return 0, 0
	}
	hour = int(slot[0]-'0')*10 + int(slot[1]-'0')
	minute = int(slot[3]-'0')*10 + int(slot[4]-'0')
	return hour, minute
}

// Enriched pairs an appointment with the counterpart's reduced view: patients
// see the doctor, doctors see the patient.
type Enriched struct {
	Appointment
	Patient *identity.View `json:"patient,omitempty"`
	Doctor  *identity.View `json:"doctor,omitempty"`
}
