package credential

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryRepository builds an in-memory credential store for testing and
// database-less development. It honours the same conditional-bind contract
// as the Postgres implementation.
func NewMemoryRepository() Repository {
	return &memoryRepository{creds: make(map[string]Credential)}
}

func (r *memoryRepository) Create(_ context.Context, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred.Code = Normalize(cred.Code)
	for _, existing := range r.creds {
		if existing.Code == cred.Code {
			return ErrDuplicateCode
		}
		if cred.Metadata.PaymentReference != "" &&
			existing.Metadata.PaymentReference == cred.Metadata.PaymentReference {
			return ErrDuplicateReference
		}
	}
	r.creds[cred.ID] = cred
	return nil
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code = Normalize(code)
	for _, cred := range r.creds {
		if cred.Code == code {
			return cred, nil
		}
	}
	return Credential{}, ErrNotFound
}

func (r *memoryRepository) FindByPaymentReference(_ context.Context, reference string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reference == "" {
		return Credential{}, ErrNotFound
	}
	for _, cred := range r.creds {
		if cred.Metadata.PaymentReference == reference {
			return cred, nil
		}
	}
	return Credential{}, ErrNotFound
}

func (r *memoryRepository) Bind(_ context.Context, id, fingerprint string, boundAt, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return false, ErrNotFound
	}
	if cred.DeviceFingerprint != nil {
		return false, nil
	}
	boundAt = boundAt.UTC()
	expiresAt = expiresAt.UTC()
	cred.DeviceFingerprint = &fingerprint
	cred.BoundAt = &boundAt
	cred.ExpiresAt = &expiresAt
	r.creds[id] = cred
	return true, nil
}

func (r *memoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return ErrNotFound
	}
	cred.IsActive = active
	r.creds[id] = cred
	return nil
}

func (r *memoryRepository) ClearBinding(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.creds[id]
	if !ok {
		return ErrNotFound
	}
	cred.DeviceFingerprint = nil
	cred.BoundAt = nil
	cred.ExpiresAt = nil
	r.creds[id] = cred
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[id]; !ok {
		return ErrNotFound
	}
	delete(r.creds, id)
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now().UTC()
	var creds []Credential
	for _, cred := range r.creds {
		switch filter {
		case FilterActive:
			if !cred.IsActive {
				continue
			}
		case FilterInactive:
			if cred.IsActive {
				continue
			}
		case FilterBound:
			if !cred.Bound() {
				continue
			}
		case FilterUnbound:
			if cred.Bound() {
				continue
			}
		case FilterExpired:
			if !cred.Expired(now) {
				continue
			}
		}
		creds = append(creds, cred)
	}
	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.After(creds[j].CreatedAt)
	})
	return creds, nil
}
