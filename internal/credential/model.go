package credential

import "time"

// Origin identifies how a credential came into existence.
type Origin string

const (
	// OriginStudentPurchase marks codes issued through a verified payment.
	OriginStudentPurchase Origin = "student_purchase"
	// OriginAdminManual marks codes issued by an administrator.
	OriginAdminManual Origin = "admin_manual"
)

// Metadata carries purchase context recorded at creation and never rewritten
// by the lifecycle afterwards.
type Metadata struct {
	PaymentReference string `json:"payment_reference,omitempty"`
	PurchaserName    string `json:"purchaser_name,omitempty"`
	ExamEntitlement  string `json:"exam_entitlement,omitempty"`
	AmountPaid       int64  `json:"amount_paid_minor,omitempty"`
	Note             string `json:"note,omitempty"`
}

// Credential is an access code together with its binding and expiry state.
// DeviceFingerprint, BoundAt and ExpiresAt are set and cleared together:
// either all three are nil (unbound) or all three are present (bound).
type Credential struct {
	ID                string
	Code              string
	Origin            Origin
	IsActive          bool
	DeviceFingerprint *string
	BoundAt           *time.Time
	ExpiresAt         *time.Time
	Metadata          Metadata
	CreatedAt         time.Time
}

// Bound reports whether the credential is locked to a device.
func (c Credential) Bound() bool {
	return c.DeviceFingerprint != nil
}

// Expired reports whether the credential is past its expiry relative to now.
// An unbound credential has no expiry and never reports expired.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.UTC().After(c.ExpiresAt.UTC())
}

const (
	// StatusAuthorized indicates the credential is valid for this device.
	StatusAuthorized = "authorized"
	// StatusBindingConfirmationRequired indicates the code is unbound and the
	// caller must explicitly confirm before it is locked to the device.
	StatusBindingConfirmationRequired = "binding_confirmation_required"
)

// Decision is the outcome of an authorization attempt that did not fail.
type Decision struct {
	Status    string
	ExpiresAt *time.Time
}

// Summary is the administrative view of a credential.
type Summary struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Origin    Origin     `json:"origin"`
	IsActive  bool       `json:"is_active"`
	Bound     bool       `json:"bound"`
	BoundAt   *time.Time `json:"bound_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Metadata  Metadata   `json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
}

// Filter narrows administrative credential listings.
type Filter string

const (
	FilterAll      Filter = ""
	FilterActive   Filter = "active"
	FilterInactive Filter = "inactive"
	FilterBound    Filter = "bound"
	FilterUnbound  Filter = "unbound"
	FilterExpired  Filter = "expired"
)
