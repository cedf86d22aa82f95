package credential

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists credentials.
type Repository interface {
	Create(ctx context.Context, cred Credential) error
	FindByCode(ctx context.Context, code string) (Credential, error)
	FindByPaymentReference(ctx context.Context, reference string) (Credential, error)
	// Bind sets the fingerprint, bind time and expiry in one conditional
	// update that succeeds only while the stored fingerprint is still null.
	// It reports false, without error, when the credential was already bound.
	Bind(ctx context.Context, id, fingerprint string, boundAt, expiresAt time.Time) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
	ClearBinding(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]Credential, error)
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed credential repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new credential. Unique violations are mapped to
// ErrDuplicateCode or ErrDuplicateReference depending on the constraint.
func (r *PostgresRepository) Create(ctx context.Context, cred Credential) error {
	id, err := uuid.Parse(cred.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO credentials
        (id, code, origin, is_active, device_fingerprint, bound_at, expires_at,
         payment_reference, purchaser_name, exam_entitlement, amount_paid, note, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, Normalize(cred.Code), string(cred.Origin), cred.IsActive,
		cred.DeviceFingerprint, utcPtr(cred.BoundAt), utcPtr(cred.ExpiresAt),
		nullIfEmpty(cred.Metadata.PaymentReference), cred.Metadata.PurchaserName,
		cred.Metadata.ExamEntitlement, cred.Metadata.AmountPaid, cred.Metadata.Note,
		cred.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "credentials_payment_reference_key" {
			return ErrDuplicateReference
		}
		return ErrDuplicateCode
	}
	return err
}

const credentialColumns = `id, code, origin, is_active, device_fingerprint, bound_at,
        expires_at, payment_reference, purchaser_name, exam_entitlement, amount_paid, note, created_at`

// FindByCode fetches a credential by its normalized code.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (Credential, error) {
	row := r.db.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE code = $1`,
		Normalize(code))
	return scanCredential(row)
}

// FindByPaymentReference fetches the credential issued for a payment, if any.
func (r *PostgresRepository) FindByPaymentReference(ctx context.Context, reference string) (Credential, error) {
	row := r.db.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE payment_reference = $1`,
		reference)
	return scanCredential(row)
}

// Bind performs the conditional first-bind update. The WHERE clause is the
// race guard: two concurrent binds can both reach here, but only the first
// update matches a row whose fingerprint is still null.
func (r *PostgresRepository) Bind(ctx context.Context, id, fingerprint string, boundAt, expiresAt time.Time) (bool, error) {
	credID, err := uuid.Parse(id)
	if err != nil {
		return false, err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE credentials
        SET device_fingerprint = $1, bound_at = $2, expires_at = $3
        WHERE id = $4 AND device_fingerprint IS NULL`,
		fingerprint, boundAt.UTC(), expiresAt.UTC(), credID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// SetActive toggles the administrative active flag.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	credID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE credentials SET is_active = $1 WHERE id = $2`, active, credID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearBinding re-arms the credential by clearing the fingerprint, bind time
// and expiry as one unit.
func (r *PostgresRepository) ClearBinding(ctx context.Context, id string) error {
	credID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE credentials
        SET device_fingerprint = NULL, bound_at = NULL, expires_at = NULL
        WHERE id = $1`, credID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the credential record permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	credID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, credID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns credentials matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials`
	switch filter {
	case FilterActive:
		query += ` WHERE is_active`
	case FilterInactive:
		query += ` WHERE NOT is_active`
	case FilterBound:
		query += ` WHERE device_fingerprint IS NOT NULL`
	case FilterUnbound:
		query += ` WHERE device_fingerprint IS NULL`
	case FilterExpired:
		query += ` WHERE expires_at IS NOT NULL AND expires_at < NOW()`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

func scanCredential(row pgx.Row) (Credential, error) {
	var (
		id        uuid.UUID
		origin    string
		payRef    *string
		createdAt time.Time
		cred      Credential
	)
	err := row.Scan(&id, &cred.Code, &origin, &cred.IsActive, &cred.DeviceFingerprint,
		&cred.BoundAt, &cred.ExpiresAt, &payRef, &cred.Metadata.PurchaserName,
		&cred.Metadata.ExamEntitlement, &cred.Metadata.AmountPaid, &cred.Metadata.Note,
		&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, err
	}
	cred.ID = id.String()
	cred.Origin = Origin(origin)
	if payRef != nil {
		cred.Metadata.PaymentReference = *payRef
	}
	cred.CreatedAt = createdAt.UTC()
	if cred.BoundAt != nil {
		t := cred.BoundAt.UTC()
		cred.BoundAt = &t
	}
	if cred.ExpiresAt != nil {
		t := cred.ExpiresAt.UTC()
		cred.ExpiresAt = &t
	}
	return cred, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
