package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acepass/acepass/internal/notification"
)

const (
	// DefaultValidity is the binding-to-expiry horizon.
	DefaultValidity = 365 * 24 * time.Hour

	maxGenerateAttempts = 3
)

// Service enforces the credential lifecycle: generation, first-use device
// binding, per-login validation and administrative overrides. It is the only
// writer of the binding and active fields.
type Service struct {
	repo     Repository
	notifier notification.Notifier
	validity time.Duration
}

// NewService builds the lifecycle engine. A non-positive validity falls back
// to DefaultValidity.
func NewService(repo Repository, notifier notification.Notifier, validity time.Duration) *Service {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Service{repo: repo, notifier: notifier, validity: validity}
}

// GenerateInput captures the origin and purchase context of a new code.
type GenerateInput struct {
	Origin   Origin
	Metadata Metadata
}

// Generate creates an unbound credential with a fresh random code, retrying a
// bounded number of times on the (negligible but real) chance of a collision.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (Credential, error) {
	switch input.Origin {
	case OriginStudentPurchase:
		if input.Metadata.PaymentReference == "" {
			return Credential{}, fmt.Errorf("payment reference is required for %s", OriginStudentPurchase)
		}
	case OriginAdminManual:
	default:
		return Credential{}, fmt.Errorf("unknown origin %q", input.Origin)
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := NewCode()
		if err != nil {
			return Credential{}, err
		}
		cred := Credential{
			ID:        uuid.New().String(),
			Code:      code,
			Origin:    input.Origin,
			IsActive:  true,
			Metadata:  input.Metadata,
			CreatedAt: time.Now().UTC(),
		}
		err = s.repo.Create(ctx, cred)
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return Credential{}, err
		}
		s.notify(ctx, notification.KindCodeIssued, cred.Code,
			fmt.Sprintf("access code issued (origin=%s)", cred.Origin))
		return cred, nil
	}
	return Credential{}, ErrGenerationExhausted
}

// Authorize runs the central authorization state machine for a login attempt.
//
// Binding is irrevocable without an administrator, so an unbound code is never
// bound silently: the caller first receives StatusBindingConfirmationRequired
// and must repeat the call with confirmBinding set.
func (s *Service) Authorize(ctx context.Context, code, fingerprint string, confirmBinding bool) (Decision, error) {
	if fingerprint == "" {
		return Decision{}, fmt.Errorf("device fingerprint is required")
	}

	cred, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Decision{}, ErrInvalidCredential
		}
		// Storage trouble must stay a retryable failure, never a denial.
		return Decision{}, err
	}

	if !cred.IsActive {
		return Decision{}, ErrDeactivated
	}

	if !cred.Bound() {
		if !confirmBinding {
			return Decision{Status: StatusBindingConfirmationRequired}, nil
		}
		boundAt := time.Now().UTC()
		expiresAt := boundAt.Add(s.validity)
		bound, err := s.repo.Bind(ctx, cred.ID, fingerprint, boundAt, expiresAt)
		if err != nil {
			return Decision{}, err
		}
		if bound {
			return Decision{Status: StatusAuthorized, ExpiresAt: &expiresAt}, nil
		}
		// Lost a concurrent first-bind race. Re-read and fall through to the
		// bound-credential checks against whoever won.
		cred, err = s.repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Decision{}, ErrInvalidCredential
			}
			return Decision{}, err
		}
		if !cred.Bound() {
			// Bind affected zero rows yet the record reads unbound: an admin
			// reset raced us. Ask the caller to retry rather than guessing.
			return Decision{}, fmt.Errorf("binding conflict, retry authorization")
		}
	}

	if *cred.DeviceFingerprint != fingerprint {
		return Decision{}, ErrDeviceMismatch
	}
	if cred.Expired(time.Now()) {
		return Decision{}, &ExpiredError{ExpiresAt: *cred.ExpiresAt}
	}
	return Decision{Status: StatusAuthorized, ExpiresAt: cred.ExpiresAt}, nil
}

// Check validates an already-established session presenting a code and a
// fingerprint. Unlike Authorize it never offers the binding-confirmation
// flow; an unbound, mismatched or expired credential is hard-rejected.
func (s *Service) Check(ctx context.Context, code, fingerprint string) (Credential, error) {
	if fingerprint == "" {
		return Credential{}, ErrDeviceMismatch
	}
	cred, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Credential{}, ErrInvalidCredential
		}
		return Credential{}, err
	}
	if !cred.IsActive {
		return Credential{}, ErrDeactivated
	}
	if !cred.Bound() {
		return Credential{}, ErrNotBound
	}
	if *cred.DeviceFingerprint != fingerprint {
		return Credential{}, ErrDeviceMismatch
	}
	if cred.Expired(time.Now()) {
		return Credential{}, &ExpiredError{ExpiresAt: *cred.ExpiresAt}
	}
	return cred, nil
}

// List returns administrative summaries matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Summary, error) {
	creds, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	summaries := make([]Summary, 0, len(creds))
	for _, cred := range creds {
		summaries = append(summaries, Summary{
			ID:        cred.ID,
			Code:      cred.Code,
			Origin:    cred.Origin,
			IsActive:  cred.IsActive,
			Bound:     cred.Bound(),
			BoundAt:   cred.BoundAt,
			ExpiresAt: cred.ExpiresAt,
			Expired:   cred.Expired(now),
			Metadata:  cred.Metadata,
			CreatedAt: cred.CreatedAt,
		})
	}
	return summaries, nil
}

// ResetBinding clears the fingerprint, bind time and expiry together,
// re-arming the credential for a fresh binding cycle. It does not touch the
// active flag, the code or the purchase metadata; the next successful bind
// computes a brand-new expiry.
func (s *Service) ResetBinding(ctx context.Context, id string) error {
	if err := s.repo.ClearBinding(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, notification.KindBindingReset, id, "device lock reset by administrator")
	return nil
}

// SetActive flips the administrative active flag without touching binding state.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// Delete removes the credential permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body})
}
