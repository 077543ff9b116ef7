package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// userRepoMem is an in-memory UserRepository used by tests and by the serve
// command in development when no DATABASE_URL is configured.
type userRepoMem struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

func NewUserRepoMem() UserRepository {
	return &userRepoMem{users: make(map[uuid.UUID]*User)}
}

func (r *userRepoMem) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *userRepoMem) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepoMem) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *userRepoMem) ListByRole(_ context.Context, role string, limit, offset int) ([]*User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

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
