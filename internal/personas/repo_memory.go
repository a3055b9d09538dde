package personas

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	personas map[string]Persona
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{personas: make(map[string]Persona)}
}

func (r *MemoryRepo) Put(p Persona) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[p.ID] = p
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Persona, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.personas[id]
	if !ok {
		return Persona{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Default(ctx context.Context) (Persona, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []Persona
	for _, p := range r.personas {
		if p.IsActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return Persona{}, ErrNotFound
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active[0], nil
}
