package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// repoMem is an in-memory Repository used by tests and by the serve command
// in development when no DATABASE_URL is configured.
type repoMem struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

func NewRepoMem() Repository {
	return &repoMem{appts: make(map[uuid.UUID]*Appointment)}
}

func (r *repoMem) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *repoMem) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *repoMem) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (r *repoMem) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
}

func (r *repoMem) list(match func(*Appointment) bool, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Appointment
	for _, a := range r.appts {
		if match(a) {
			cp := *a
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime().After(matched[j].StartTime())
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
