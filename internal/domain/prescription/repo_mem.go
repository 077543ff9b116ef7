package prescription

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
	mu  sync.RWMutex
	rxs map[uuid.UUID]*Prescription
}

func NewRepoMem() Repository {
	return &repoMem{rxs: make(map[uuid.UUID]*Prescription)}
}

func (r *repoMem) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	r.rxs[p.ID] = &cp
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rxs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *repoMem) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(func(p *Prescription) bool { return p.PatientID == patientID }, limit, offset)
}

func (r *repoMem) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(func(p *Prescription) bool { return p.DoctorID == doctorID }, limit, offset)
}

func (r *repoMem) list(match func(*Prescription) bool, limit, offset int) ([]*Prescription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Prescription
	for _, p := range r.rxs {
		if match(p) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
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
