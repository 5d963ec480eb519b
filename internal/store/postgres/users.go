package postgres

import (
	"context"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

const userColumns = `id, username, password_hash, role, pic, created_at, updated_at`

const sessionColumns = `token, user_id, role, expires_at, created_at`

func queryCreateUser(ctx context.Context, db executor, u *model.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.Pic, u.CreatedAt, u.UpdatedAt,
	)
	return mapWriteErr(err)
}

func queryGetUser(ctx context.Context, db executor, id string) (*model.User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func queryGetUserByUsername(ctx context.Context, db executor, username string) (*model.User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func queryCreateSession(ctx context.Context, db executor, s *model.Session) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		s.Token, s.UserID, string(s.Role), s.ExpiresAt, s.CreatedAt,
	)
	return err
}

func queryGetSession(ctx context.Context, db executor, token string) (*model.Session, error) {
	return scanSession(db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token))
}

func queryDeleteSession(ctx context.Context, db executor, token string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryDeleteExpiredSessions(ctx context.Context, db executor, now time.Time) (int, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
