package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/db"
)

// PostgresSessionStore keeps refresh sessions in the sessions table. Rows
// disappear with their user through the foreign key cascade.
type PostgresSessionStore struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool, now: time.Now}
}

// Save records the session and drops the user's sessions that have already
// expired, in one transaction.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sessions WHERE user_id = $1 AND expires_at <= $2`,
			session.UserID, s.now().UTC(),
		); err != nil {
			return fmt.Errorf("prune expired sessions: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO sessions (refresh_token, user_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (refresh_token)
			DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
			session.RefreshToken, session.UserID, session.ExpiresAt.UTC(),
		); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// Find loads a session by refresh token. Expiry is left to the caller.
func (s *PostgresSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	session := auth.Session{RefreshToken: refreshToken}
	err = conn.QueryRow(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE refresh_token = $1`,
		refreshToken,
	).Scan(&session.UserID, &session.ExpiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return auth.Session{}, auth.ErrSessionNotFound
	case err != nil:
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}

	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Delete removes a session by refresh token.
func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
