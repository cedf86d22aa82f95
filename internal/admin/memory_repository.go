package admin

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	admins map[string]Admin
}

// NewMemoryRepository builds an in-memory admin store for testing and
// database-less development.
func NewMemoryRepository() Repository {
	return &memoryRepository{admins: make(map[string]Admin)}
}

func (r *memoryRepository) Create(_ context.Context, admin Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == admin.Username {
			return errors.New("username exists")
		}
	}
	r.admins[admin.ID] = admin
	return nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, admin := range r.admins {
		if admin.Username == username {
			return admin, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return admin, nil
}

func (r *memoryRepository) IncrementLoginCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return ErrNotFound
	}
	admin.LoginCount++
	r.admins[id] = admin
	return nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id string, hash []byte, rotatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return ErrNotFound
	}
	rotatedAt = rotatedAt.UTC()
	admin.PasswordHash = hash
	admin.RotatedAt = &rotatedAt
	r.admins[id] = admin
	return nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins), nil
}
