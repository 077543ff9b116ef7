package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/appointment"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/platform/auth"
)

var (
	ErrNotFound   = errors.New("prescription not found")
	ErrForbidden  = errors.New("not allowed")
	ErrValidation = errors.New("validation failed")
)

const maxNotesLen = 1000

type Service struct {
	repo  Repository
	ids   *identity.Service
	appts appointment.Repository
}

func NewService(repo Repository, ids *identity.Service, appts appointment.Repository) *Service {
	return &Service{repo: repo, ids: ids, appts: appts}
}

type CreateInput struct {
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	AppointmentID *uuid.UUID
	Medicines     []Medicine
	Notes         *string
}

// Create issues a prescription in the acting doctor's name. A doctor cannot
// issue under another doctor's identity regardless of payload. When tied to
// an appointment, the actor must be that appointment's doctor and the patient
// must match.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*Prescription, error) {
	if actor.Role != identity.RoleDoctor {
		return nil, fmt.Errorf("%w: only doctors can issue prescriptions", ErrForbidden)
	}
	if in.DoctorID != uuid.Nil && in.DoctorID != actor.ID {
		return nil, fmt.Errorf("%w: prescriptions can only be issued under your own identity", ErrForbidden)
	}

	if len(in.Medicines) == 0 {
		return nil, fmt.Errorf("%w: at least one medicine is required", ErrValidation)
	}
	for i := range in.Medicines {
		in.Medicines[i].Name = strings.TrimSpace(in.Medicines[i].Name)
		in.Medicines[i].Dosage = strings.TrimSpace(in.Medicines[i].Dosage)
		if in.Medicines[i].Name == "" {
			return nil, fmt.Errorf("%w: medicine name is required", ErrValidation)
		}
		if in.Medicines[i].Dosage == "" {
			return nil, fmt.Errorf("%w: medicine dosage is required", ErrValidation)
		}
	}
	if in.Notes != nil {
		trimmed := strings.TrimSpace(*in.Notes)
		if trimmed == "" {
			in.Notes = nil
		} else if utf8.RuneCountInString(trimmed) > maxNotesLen {
			return nil, fmt.Errorf("%w: notes must not exceed %d characters", ErrValidation, maxNotesLen)
		} else {
			in.Notes = &trimmed
		}
	}

	patient, err := s.ids.Get(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != identity.RolePatient {
		return nil, fmt.Errorf("%w: user %s is not a patient", ErrValidation, in.PatientID)
	}

	if in.AppointmentID != nil {
		a, err := s.appts.GetByID(ctx, *in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if a.DoctorID != actor.ID {
			return nil, fmt.Errorf("%w: appointment belongs to another doctor", ErrForbidden)
		}
		if a.PatientID != in.PatientID {
			return nil, fmt.Errorf("%w: appointment belongs to another patient", ErrValidation)
		}
	}

	p := &Prescription{
		AppointmentID: in.AppointmentID,
		DoctorID:      actor.ID,
		PatientID:     in.PatientID,
		Medicines:     in.Medicines,
		Notes:         in.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListForIdentity returns the actor's prescriptions, each enriched with the
// counterpart's reduced view.
func (s *Service) ListForIdentity(ctx context.Context, actor auth.Identity, limit, offset int) ([]Enriched, int, error) {
	var (
		items []*Prescription
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
	for _, p := range items {
		e := Enriched{Prescription: *p}
		counterpart := p.DoctorID
		if actor.Role == identity.RoleDoctor {
			counterpart = p.PatientID
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
