package repo

import (
	"context"
	"database/sql"
	"errors"

	"bizdesk/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const userColumns = `id,name,username,email,role,COALESCE(bio,'') AS bio,COALESCE(phone,'') AS phone,verified,COALESCE(last_login_at,'') AS last_login_at,created_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.Bio, &u.Phone, &u.Verified, &u.LastLoginAt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// InsertUser stores a new user with its password hash.
func (r Repo) InsertUser(ctx context.Context, tx *sql.Tx, u domain.User, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users(id,name,username,email,role,bio,phone,password_hash,verified,last_login_at,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Username, u.Email, u.Role, nullable(u.Bio), nullable(u.Phone), passwordHash, u.Verified, nullable(u.LastLoginAt), u.CreatedAt)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
}

func (r Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username))
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email))
}

// Credentials returns the user and password hash for a username.
func (r Repo) Credentials(ctx context.Context, username string) (domain.User, string, error) {
	var u domain.User
	var hash string
	err := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+`,password_hash FROM users WHERE username=?`, username).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.Bio, &u.Phone, &u.Verified, &u.LastLoginAt, &u.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return u, "", ErrNotFound
	}
	return u, hash, err
}

// UsernameOrEmailTaken reports whether either identifier is already in use.
func (r Repo) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=? OR email=? LIMIT 1`, username, email).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r Repo) SetUserVerified(ctx context.Context, tx *sql.Tx, email string) error {
	res, err := tx.ExecContext(ctx, `UPDATE users SET verified=1 WHERE email=?`, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetLastLogin(ctx context.Context, tx *sql.Tx, userID, ts string) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET last_login_at=? WHERE id=?`, ts, userID)
	return err
}

// ProfileUpdate holds the partial profile patch; nil fields are unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Bio   *string
	Phone *string
}

func (r Repo) UpdateProfile(ctx context.Context, tx *sql.Tx, userID string, p ProfileUpdate) (domain.User, error) {
	if p.Name != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET name=? WHERE id=?`, *p.Name, userID); err != nil {
			return domain.User{}, err
		}
	}
	if p.Email != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET email=? WHERE id=?`, *p.Email, userID); err != nil {
			return domain.User{}, err
		}
	}
	if p.Bio != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET bio=? WHERE id=?`, nullable(*p.Bio), userID); err != nil {
			return domain.User{}, err
		}
	}
	if p.Phone != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET phone=? WHERE id=?`, nullable(*p.Phone), userID); err != nil {
			return domain.User{}, err
		}
	}
	var u domain.User
	err := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, userID).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.Bio, &u.Phone, &u.Verified, &u.LastLoginAt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// ListEvents returns recent audit events, newest first.
func (r Repo) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,'') AS entity_id,actor_id,payload_json
FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
