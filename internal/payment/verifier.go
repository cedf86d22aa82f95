package payment

import (
	"context"

	"github.com/google/uuid"
)

// StatusSuccess is the only verifier status that releases a code.
const StatusSuccess = "success"

// Verification captures the gateway's answer for a transaction reference.
// AmountMinor is in minor currency units as reported by the gateway; client
// supplied amounts are never trusted.
type Verification struct {
	Reference   string
	Status      string
	AmountMinor int64
	ExternalID  string
}

// Verifier represents a connector to the external payment gateway.
type Verifier interface {
	Verify(ctx context.Context, reference string) (Verification, error)
}

// StaticVerifier simulates a gateway that confirms every reference at a fixed
// amount. Used in development mode and tests.
type StaticVerifier struct {
	AmountMinor int64
}

// Verify approves the reference with a synthetic gateway transaction id.
func (v StaticVerifier) Verify(_ context.Context, reference string) (Verification, error) {
	return Verification{
		Reference:   reference,
		Status:      StatusSuccess,
		AmountMinor: v.AmountMinor,
		ExternalID:  uuid.NewString(),
	}, nil
}
