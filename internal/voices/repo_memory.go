package voices

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	voices map[string]VoiceProfile
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{voices: make(map[string]VoiceProfile)}
}

func (r *MemoryRepo) Put(v VoiceProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices[v.ID] = v
}

func (r *MemoryRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.voices, id)
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (VoiceProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.voices[id]
	if !ok {
		return VoiceProfile{}, ErrNotFound
	}
	return v, nil
}

func (r *MemoryRepo) Default(ctx context.Context) (VoiceProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.voices {
		if v.IsDefault {
			return v, nil
		}
	}
	return VoiceProfile{}, ErrNotFound
}
