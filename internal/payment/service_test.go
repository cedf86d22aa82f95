package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/acepass/acepass/internal/credential"
)

type scriptedVerifier struct {
	status string
	amount int64
	err    error
}

func (v scriptedVerifier) Verify(_ context.Context, reference string) (Verification, error) {
	if v.err != nil {
		return Verification{}, v.err
	}
	return Verification{Reference: reference, Status: v.status, AmountMinor: v.amount, ExternalID: "gw-1"}, nil
}

func newBridge(verifier Verifier, minAmount int64) (*Service, credential.Repository) {
	repo := credential.NewMemoryRepository()
	creds := credential.NewService(repo, nil, 0)
	return NewService(creds, repo, verifier, nil, minAmount), repo
}

func TestCompletePaymentIssuesCode(t *testing.T) {
	svc, repo := newBridge(scriptedVerifier{status: StatusSuccess, amount: 5_000}, 5_000)
	ctx := context.Background()

	cred, created, err := svc.CompletePayment(ctx, CompleteInput{
		Reference:     "ref-1",
		PurchaserName: "Ada",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !created {
		t.Fatalf("expected a freshly issued code")
	}
	if cred.Origin != credential.OriginStudentPurchase {
		t.Fatalf("unexpected origin %q", cred.Origin)
	}
	if cred.Metadata.PaymentReference != "ref-1" || cred.Metadata.AmountPaid != 5_000 {
		t.Fatalf("metadata not recorded: %+v", cred.Metadata)
	}

	stored, err := repo.FindByPaymentReference(ctx, "ref-1")
	if err != nil {
		t.Fatalf("find by reference: %v", err)
	}
	if stored.Code != cred.Code {
		t.Fatalf("stored code mismatch")
	}
}

func TestCompletePaymentIdempotentReplay(t *testing.T) {
	svc, _ := newBridge(scriptedVerifier{status: StatusSuccess, amount: 5_000}, 5_000)
	ctx := context.Background()

	first, created, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-2"})
	if err != nil || !created {
		t.Fatalf("first completion: created=%v err=%v", created, err)
	}

	second, created, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-2"})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if created {
		t.Fatalf("replay must not create a second credential")
	}
	if second.Code != first.Code {
		t.Fatalf("replay must return the original code: %q vs %q", second.Code, first.Code)
	}
}

func TestCompletePaymentConcurrentSameReference(t *testing.T) {
	svc, repo := newBridge(scriptedVerifier{status: StatusSuccess, amount: 5_000}, 5_000)
	ctx := context.Background()

	const callers = 8
	codes := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, _, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-race"})
			codes[i], errs[i] = cred.Code, err
		}()
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if codes[i] != codes[0] {
			t.Fatalf("callers received different codes: %q vs %q", codes[i], codes[0])
		}
	}

	all, err := repo.List(ctx, credential.FilterAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one credential, got %d", len(all))
	}
}

func TestCompletePaymentRejections(t *testing.T) {
	ctx := context.Background()

	svc, _ := newBridge(scriptedVerifier{status: "failed"}, 5_000)
	if _, _, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-3"}); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified for failed status, got %v", err)
	}

	svc, _ = newBridge(scriptedVerifier{status: StatusSuccess, amount: 4_999}, 5_000)
	if _, _, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-4"}); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified for low amount, got %v", err)
	}

	svc, _ = newBridge(scriptedVerifier{err: fmt.Errorf("gateway unreachable")}, 5_000)
	if _, _, err := svc.CompletePayment(ctx, CompleteInput{Reference: "ref-5"}); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified for gateway error, got %v", err)
	}

	if _, _, err := svc.CompletePayment(ctx, CompleteInput{}); err == nil {
		t.Fatalf("expected error for missing reference")
	}
}
