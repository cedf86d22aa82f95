package payment

// CompleteRequest captures the client's claim that a gateway payment went
// through. Only the reference is trusted; amount and status come from the
// verifier.
type CompleteRequest struct {
	Reference       string `json:"reference"`
	PurchaserName   string `json:"purchaser_name"`
	ExamEntitlement string `json:"exam_entitlement"`
}

// CompleteResponse returns the issued (or replayed) access code.
type CompleteResponse struct {
	Code       string `json:"code"`
	AmountPaid int64  `json:"amount_paid_minor"`
	Replayed   bool   `json:"replayed"`
}
