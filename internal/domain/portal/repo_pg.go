package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository {
	return &accountRepoPG{pool: pool}
}

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const acctCols = `id, username, email, password_hash, first_name, last_name, birth_date,
	phone, phone_country, status, last_login_at, created_at, updated_at`

func (r *accountRepoPG) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.BirthDate,
		&a.Phone, &a.PhoneCountry, &a.Status, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("portal account: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO portal_account (id, username, email, password_hash, first_name, last_name,
			birth_date, phone, phone_country, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.BirthDate, a.Phone, a.PhoneCountry, a.Status).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("username or email")
	}
	return err
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+acctCols+` FROM portal_account WHERE id = $1`, id))
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+acctCols+` FROM portal_account WHERE username = $1`, username))
}

func (r *accountRepoPG) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM portal_account WHERE username = $1 OR email = $2)`,
		username, email).Scan(&exists)
	return exists, err
}

func (r *accountRepoPG) Update(ctx context.Context, a *Account) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE portal_account SET email=$2, password_hash=$3, first_name=$4, last_name=$5,
			birth_date=$6, phone=$7, phone_country=$8, status=$9, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.BirthDate, a.Phone, a.PhoneCountry, a.Status)
	if isUniqueViolation(err) {
		return apperr.Conflict("email")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portal account: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *accountRepoPG) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE portal_account SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
