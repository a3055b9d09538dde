package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo assumes a call_logs table:
// (id, user_id, persona_id, conversation_id, provider_call_id, direction,
//  from_number, to_number, status, duration_seconds, error_message,
//  started_at, ended_at, created_at, updated_at)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callLogColumns = `
id, user_id, persona_id, conversation_id, provider_call_id, direction,
from_number, to_number, status, duration_seconds, error_message,
started_at, ended_at, created_at, updated_at
`

func (r *PostgresRepo) Create(ctx context.Context, c CallLog) error {
	const q = `
INSERT INTO call_logs (` + callLogColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.UserID,
		c.PersonaID,
		c.ConversationID,
		c.ProviderCallID,
		c.Direction,
		c.From,
		c.To,
		c.Status,
		c.DurationSeconds,
		nullIfEmpty(c.ErrorMessage),
		c.StartedAt,
		c.EndedAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (CallLog, error) {
	const q = `SELECT ` + callLogColumns + ` FROM call_logs WHERE id = $1`
	return scanCallLog(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (CallLog, error) {
	const q = `SELECT ` + callLogColumns + ` FROM call_logs WHERE provider_call_id = $1`
	return scanCallLog(r.db.QueryRowContext(ctx, q, providerCallID))
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, at time.Time) error {
	const q = `UPDATE call_logs SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Finalize(ctx context.Context, id string, status CallStatus, endedAt time.Time, durationSeconds int, errorMessage string) (bool, error) {
	// The ended_at IS NULL guard makes replayed terminal callbacks no-ops.
	const q = `
UPDATE call_logs
SET status = $2, ended_at = $3, duration_seconds = $4, error_message = $5, updated_at = $3
WHERE id = $1 AND ended_at IS NULL
`
	res, err := r.db.ExecContext(ctx, q, id, status, endedAt, durationSeconds, nullIfEmpty(errorMessage))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) CountActive(ctx context.Context, userID string) (int, error) {
	const q = `
SELECT COUNT(*) FROM call_logs
WHERE user_id = $1 AND ended_at IS NULL
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanCallLog(row *sql.Row) (CallLog, error) {
	var c CallLog
	var errMsg sql.NullString
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.PersonaID,
		&c.ConversationID,
		&c.ProviderCallID,
		&c.Direction,
		&c.From,
		&c.To,
		&c.Status,
		&c.DurationSeconds,
		&errMsg,
		&c.StartedAt,
		&c.EndedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	c.ErrorMessage = errMsg.String
	return c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
