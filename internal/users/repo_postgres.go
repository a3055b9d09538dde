package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo assumes the following tables exist:
// - users (id, phone_number, name, tier, call_credits, created_at, updated_at)
// - user_preferences (user_id PK, default_persona_id, preferred_voice_id,
//   max_call_duration_seconds, auto_renew, updated_at)
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, phone_number, name, tier, call_credits, created_at, updated_at
FROM users
WHERE id = $1
`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	const q = `
SELECT id, phone_number, name, tier, call_credits, created_at, updated_at
FROM users
WHERE phone_number = $1
`
	return r.scanUser(r.db.QueryRowContext(ctx, q, phone))
}

func (r *PostgresRepo) scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.PhoneNumber,
		&u.Name,
		&u.Tier,
		&u.CallCredits,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Preferences(ctx context.Context, userID string) (Preferences, error) {
	const q = `
SELECT user_id, default_persona_id, preferred_voice_id, max_call_duration_seconds, auto_renew, updated_at
FROM user_preferences
WHERE user_id = $1
`
	var p Preferences
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&p.UserID,
		&p.DefaultPersonaID,
		&p.PreferredVoiceID,
		&p.MaxCallDurationSeconds,
		&p.AutoRenew,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lazily created: absence means defaults.
			return Preferences{UserID: userID}, nil
		}
		return Preferences{}, err
	}
	return p, nil
}

func (r *PostgresRepo) SavePreferences(ctx context.Context, p Preferences) error {
	const q = `
INSERT INTO user_preferences (user_id, default_persona_id, preferred_voice_id, max_call_duration_seconds, auto_renew, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id)
DO UPDATE SET default_persona_id = EXCLUDED.default_persona_id,
              preferred_voice_id = EXCLUDED.preferred_voice_id,
              max_call_duration_seconds = EXCLUDED.max_call_duration_seconds,
              auto_renew = EXCLUDED.auto_renew,
              updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q,
		p.UserID,
		p.DefaultPersonaID,
		p.PreferredVoiceID,
		p.MaxCallDurationSeconds,
		p.AutoRenew,
		r.clock().UTC(),
	)
	return err
}

func (r *PostgresRepo) CreditBalance(ctx context.Context, userID string) (int, error) {
	const q = `SELECT call_credits FROM users WHERE id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) DecrementCredit(ctx context.Context, userID string) error {
	// Compare-and-decrement: the WHERE guard makes concurrent decrements safe
	// without an application-side lock.
	const q = `
UPDATE users
SET call_credits = call_credits - 1, updated_at = $2
WHERE id = $1 AND call_credits > 0
`
	res, err := r.db.ExecContext(ctx, q, userID, r.clock().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing user from an exhausted balance.
		if _, err := r.GetByID(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientCredits
	}
	return nil
}
