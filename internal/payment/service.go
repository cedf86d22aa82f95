package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/acepass/acepass/internal/credential"
	"github.com/acepass/acepass/internal/notification"
)

// ErrPaymentNotVerified indicates the gateway did not confirm the payment or
// the confirmed amount was below the exam fee. No code is released.
var ErrPaymentNotVerified = errors.New("payment not verified")

// Service converts one verified payment into exactly one access code,
// idempotently keyed by the gateway transaction reference.
type Service struct {
	credentials *credential.Service
	repo        credential.Repository
	verifier    Verifier
	notifier    notification.Notifier
	minAmount   int64
}

// NewService builds the payment-to-credential bridge.
func NewService(credentials *credential.Service, repo credential.Repository, verifier Verifier, notifier notification.Notifier, minAmount int64) *Service {
	if verifier == nil {
		verifier = StaticVerifier{AmountMinor: minAmount}
	}
	return &Service{
		credentials: credentials,
		repo:        repo,
		verifier:    verifier,
		notifier:    notifier,
		minAmount:   minAmount,
	}
}

// CompleteInput captures the purchase context accompanying a payment reference.
type CompleteInput struct {
	Reference       string
	PurchaserName   string
	ExamEntitlement string
}

// CompletePayment returns the credential for a verified payment. Replaying a
// reference returns the original credential with created=false instead of
// issuing a second code.
func (s *Service) CompletePayment(ctx context.Context, input CompleteInput) (credential.Credential, bool, error) {
	if input.Reference == "" {
		return credential.Credential{}, false, fmt.Errorf("payment reference is required")
	}

	existing, err := s.repo.FindByPaymentReference(ctx, input.Reference)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, credential.ErrNotFound) {
		return credential.Credential{}, false, err
	}

	verification, err := s.verifier.Verify(ctx, input.Reference)
	if err != nil {
		// A missing or ambiguous gateway response is a verification failure.
		return credential.Credential{}, false, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}
	if verification.Status != StatusSuccess {
		return credential.Credential{}, false, fmt.Errorf("%w: gateway status %q", ErrPaymentNotVerified, verification.Status)
	}
	if verification.AmountMinor < s.minAmount {
		return credential.Credential{}, false, fmt.Errorf("%w: amount %d below exam fee %d",
			ErrPaymentNotVerified, verification.AmountMinor, s.minAmount)
	}

	cred, err := s.credentials.Generate(ctx, credential.GenerateInput{
		Origin: credential.OriginStudentPurchase,
		Metadata: credential.Metadata{
			PaymentReference: input.Reference,
			PurchaserName:    input.PurchaserName,
			ExamEntitlement:  input.ExamEntitlement,
			AmountPaid:       verification.AmountMinor,
		},
	})
	if errors.Is(err, credential.ErrDuplicateReference) {
		// A concurrent completion of the same reference won the insert.
		existing, findErr := s.repo.FindByPaymentReference(ctx, input.Reference)
		if findErr != nil {
			return credential.Credential{}, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return credential.Credential{}, false, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentCompleted,
			Destination: input.Reference,
			Body:        fmt.Sprintf("access code issued for verified payment (gateway id %s)", verification.ExternalID),
		})
	}
	return cred, true, nil
}
