package admin

import "time"

// Admin is a portal administrator account.
//
// Bootstrap marks the seeded default account. Until its password is rotated
// it may only be used a limited number of times; LoginCount tracks usage and
// RotatedAt records the first password change.
type Admin struct {
	ID           string
	Username     string
	PasswordHash []byte
	Bootstrap    bool
	LoginCount   int
	RotatedAt    *time.Time
	CreatedAt    time.Time
}
