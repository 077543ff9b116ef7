package appointment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/platform/auth"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrForbidden         = errors.New("not allowed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

const (
	dateLayout   = "2006-01-02"
	minReasonLen = 5
	maxReasonLen = 300
	// pastGrace absorbs clock skew between client and server when checking
	// that a requested slot is not already in the past.
	pastGrace = 60 * time.Second
)

var (
	slotPattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	phonePattern = regexp.MustCompile(`^[+0-9][0-9\s()-]{5,19}$`)
)

type Service struct {
	repo Repository
	ids  *identity.Service
}

func NewService(repo Repository, ids *identity.Service) *Service {
	return &Service{repo: repo, ids: ids}
}

type CreateInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	TimeSlot  string
	Reason    *string
}

// Create books a new pending appointment. Patients may only book for
// themselves; the doctor must exist and actually hold the doctor role.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*Appointment, error) {
	if actor.Role == identity.RolePatient && actor.ID != in.PatientID {
		return nil, fmt.Errorf("%w: patients can only book their own appointments", ErrForbidden)
	}

	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrValidation)
	}
	if !slotPattern.MatchString(in.TimeSlot) {
		return nil, fmt.Errorf("%w: time slot must be in 24h HH:MM format", ErrValidation)
	}
	if in.Reason != nil {
		trimmed := strings.TrimSpace(*in.Reason)
		if trimmed == "" {
			in.Reason = nil
		} else if n := utf8.RuneCountInString(trimmed); n < minReasonLen || n > maxReasonLen {
			// Bounds are in characters, not bytes: reasons may be Devanagari.
			return nil, fmt.Errorf("%w: reason must be between %d and %d characters", ErrValidation, minReasonLen, maxReasonLen)
		} else {
			in.Reason = &trimmed
		}
	}

	a := &Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      date,
		TimeSlot:  in.TimeSlot,
		Reason:    in.Reason,
		Status:    StatusPending,
	}
	if a.StartTime().Before(time.Now().Add(-pastGrace)) {
		return nil, fmt.Errorf("%w: appointment time is in the past", ErrValidation)
	}

	if err := s.requireRole(ctx, in.PatientID, identity.RolePatient); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.DoctorID, identity.RoleDoctor); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type StatusInput struct {
	Status        string
	DoctorComment *string
	ClinicAddress *string
	ClinicPhone   *string
}

// UpdateStatus moves an appointment through its lifecycle. Only the assigned
// doctor may transition, and only along a defined edge. Confirmation details
// are accepted solely when confirming.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, in StatusInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != a.DoctorID {
		return nil, fmt.Errorf("%w: only the assigned doctor can update this appointment", ErrForbidden)
	}

	if !ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if !CanTransition(a.Status, in.Status) {
		return nil, fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidTransition, a.Status, in.Status)
	}

	if in.Status == StatusConfirmed {
		if in.ClinicPhone != nil && !phonePattern.MatchString(*in.ClinicPhone) {
			return nil, fmt.Errorf("%w: invalid clinic phone number", ErrValidation)
		}
		a.DoctorComment = in.DoctorComment
		a.ClinicAddress = in.ClinicAddress
		a.ClinicPhone = in.ClinicPhone
	} else if in.DoctorComment != nil || in.ClinicAddress != nil || in.ClinicPhone != nil {
		return nil, fmt.Errorf("%w: confirmation details are only accepted when confirming", ErrValidation)
	}

	a.Status = in.Status
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Acknowledge marks the appointment as seen by its patient. Calling it again
// is a no-op, and the current status does not matter.
func (s *Service) Acknowledge(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != a.PatientID {
		return nil, fmt.Errorf("%w: only the patient can acknowledge this appointment", ErrForbidden)
	}
	if a.PatientNotified {
		return a, nil
	}

	a.PatientNotified = true
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListForIdentity returns the actor's appointments, each enriched with the
// counterpart's reduced view.
func (s *Service) ListForIdentity(ctx context.Context, actor auth.Identity, limit, offset int) ([]Enriched, int, error) {
	var (
		items []*Appointment
		total int
		err   error
	)
	if actor.Role == identity.RoleDoctor {
		items, total, err = s.repo.ListByDoctor(ctx, actor.ID, limit, offset)
	} else {
		items, total, err = s.repo.ListByPatient(ctx, actor.ID, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}

	enriched := make([]Enriched, 0, len(items))
	for _, a := range items {
		e := Enriched{Appointment: *a}
		counterpart := a.DoctorID
		if actor.Role == identity.RoleDoctor {
			counterpart = a.PatientID
		}
		v, err := s.ids.ViewOf(ctx, counterpart)
		if err != nil && !errors.Is(err, identity.ErrNotFound) {
			return nil, 0, err
		}
		if actor.Role == identity.RoleDoctor {
			e.Patient = v
		} else {
			e.Doctor = v
		}
		enriched = append(enriched, e)
	}
	return enriched, total, nil
}

func (s *Service) requireRole(ctx context.Context, id uuid.UUID, role string) error {
	u, err := s.ids.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role != role {
		return fmt.Errorf("%w: user %s is not a %s", ErrValidation, id, role)
	}
	return nil
}
