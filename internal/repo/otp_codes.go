package repo

import (
	"context"
	"database/sql"

	"bizdesk/internal/domain"
)

// UpsertOTP replaces any pending code for the address.
func (r Repo) UpsertOTP(ctx context.Context, tx *sql.Tx, code domain.OTPCode) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO otp_codes(email,code,expires_at,created_at) VALUES (?,?,?,?)
ON CONFLICT(email) DO UPDATE SET code=excluded.code, expires_at=excluded.expires_at, created_at=excluded.created_at`,
		code.Email, code.Code, code.ExpiresAt, code.CreatedAt)
	return err
}

func (r Repo) GetOTP(ctx context.Context, email string) (domain.OTPCode, error) {
	var c domain.OTPCode
	err := r.DB.QueryRowContext(ctx, `SELECT email,code,expires_at,created_at FROM otp_codes WHERE email=?`, email).
		Scan(&c.Email, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) DeleteOTP(ctx context.Context, tx *sql.Tx, email string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM otp_codes WHERE email=?`, email)
	return err
}
