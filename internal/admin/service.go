package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidLogin indicates an unknown username or wrong password.
	ErrInvalidLogin = errors.New("invalid username or password")

	// ErrBootstrapExhausted indicates the seeded default credential hit its
	// use budget without a password rotation and is no longer accepted.
	ErrBootstrapExhausted = errors.New("default admin credential exhausted, password rotation required")
)

// DefaultBootstrapMaxUses bounds logins with the unrotated seed credential.
const DefaultBootstrapMaxUses = 5

// Service manages administrator accounts.
type Service struct {
	repo             Repository
	bootstrapMaxUses int
}

// NewService builds the admin service. A non-positive maxUses falls back to
// DefaultBootstrapMaxUses.
func NewService(repo Repository, bootstrapMaxUses int) *Service {
	if bootstrapMaxUses <= 0 {
		bootstrapMaxUses = DefaultBootstrapMaxUses
	}
	return &Service{repo: repo, bootstrapMaxUses: bootstrapMaxUses}
}

// Seed creates the bootstrap admin account if no accounts exist yet.
func (s *Service) Seed(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("bootstrap admin username and password are required")
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, Admin{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Bootstrap:    true,
		CreatedAt:    time.Now().UTC(),
	})
}

// Authenticate verifies a username/password pair. The bootstrap account is
// refused outright once its unrotated use budget is spent; documentation
// alone does not get default passwords changed.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Admin, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Admin{}, ErrInvalidLogin
		}
		return Admin{}, err
	}
	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		return Admin{}, ErrInvalidLogin
	}
	if account.Bootstrap && account.RotatedAt == nil && account.LoginCount >= s.bootstrapMaxUses {
		return Admin{}, ErrBootstrapExhausted
	}
	if err := s.repo.IncrementLoginCount(ctx, account.ID); err != nil {
		return Admin{}, err
	}
	account.LoginCount++
	return account, nil
}

// ChangePassword rotates an admin's password after verifying the current one.
// Rotation lifts the bootstrap use budget permanently.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if len(next) < 8 {
		return fmt.Errorf("new password must be at least 8 characters")
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(current)) != nil {
		return ErrInvalidLogin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, account.ID, hash, time.Now().UTC())
}

// Get fetches an admin account by id.
func (s *Service) Get(ctx context.Context, id string) (Admin, error) {
	return s.repo.FindByID(ctx, id)
}
