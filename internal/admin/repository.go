package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the admin account does not exist.
var ErrNotFound = errors.New("admin not found")

// Repository persists administrator accounts.
type Repository interface {
	Create(ctx context.Context, admin Admin) error
	FindByUsername(ctx context.Context, username string) (Admin, error)
	FindByID(ctx context.Context, id string) (Admin, error)
	IncrementLoginCount(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, hash []byte, rotatedAt time.Time) error
	Count(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed admin repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, admin Admin) error {
	id, err := uuid.Parse(admin.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO admins
        (id, username, password_hash, bootstrap, login_count, rotated_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, admin.Username, admin.PasswordHash, admin.Bootstrap,
		admin.LoginCount, admin.RotatedAt, admin.CreatedAt.UTC())
	return err
}

const adminColumns = `id, username, password_hash, bootstrap, login_count, rotated_at, created_at`

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = $1`, username)
	return scanAdmin(row)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Admin, error) {
	adminID, err := uuid.Parse(id)
	if err != nil {
		return Admin{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, adminID)
	return scanAdmin(row)
}

func (r *PostgresRepository) IncrementLoginCount(ctx context.Context, id string) error {
	adminID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE admins SET login_count = login_count + 1 WHERE id = $1`, adminID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte, rotatedAt time.Time) error {
	adminID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE admins SET password_hash = $1, rotated_at = $2 WHERE id = $3`,
		hash, rotatedAt.UTC(), adminID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanAdmin(row pgx.Row) (Admin, error) {
	var (
		id    uuid.UUID
		admin Admin
	)
	err := row.Scan(&id, &admin.Username, &admin.PasswordHash, &admin.Bootstrap,
		&admin.LoginCount, &admin.RotatedAt, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, err
	}
	admin.ID = id.String()
	admin.CreatedAt = admin.CreatedAt.UTC()
	return admin, nil
}
