package conversations

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo assumes the following tables exist:
// - conversations (id, user_id, persona_id, started_at, ended_at, last_activity_at, is_archived)
// - messages (id, conversation_id, role, content, audio_url, duration_seconds, created_at)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, c Conversation) error {
	const q = `
INSERT INTO conversations (id, user_id, persona_id, started_at, ended_at, last_activity_at, is_archived)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.UserID,
		c.PersonaID,
		c.StartedAt,
		c.EndedAt,
		c.LastActivityAt,
		c.IsArchived,
	)
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Conversation, error) {
	const q = `
SELECT id, user_id, persona_id, started_at, ended_at, last_activity_at, is_archived
FROM conversations
WHERE id = $1
`
	var c Conversation
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.UserID,
		&c.PersonaID,
		&c.StartedAt,
		&c.EndedAt,
		&c.LastActivityAt,
		&c.IsArchived,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	return c, nil
}

func (r *PostgresRepo) FindOpen(ctx context.Context, userID, personaID string) (Conversation, bool, error) {
	const q = `
SELECT id, user_id, persona_id, started_at, ended_at, last_activity_at, is_archived
FROM conversations
WHERE user_id = $1 AND persona_id = $2 AND ended_at IS NULL AND is_archived = FALSE
ORDER BY last_activity_at DESC
LIMIT 1
`
	var c Conversation
	err := r.db.QueryRowContext(ctx, q, userID, personaID).Scan(
		&c.ID,
		&c.UserID,
		&c.PersonaID,
		&c.StartedAt,
		&c.EndedAt,
		&c.LastActivityAt,
		&c.IsArchived,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) SetEnded(ctx context.Context, id string, at time.Time) (bool, error) {
	// The ended_at IS NULL guard makes replays no-ops.
	const q = `
UPDATE conversations
SET ended_at = $2
WHERE id = $1 AND ended_at IS NULL
`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) Touch(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE conversations SET last_activity_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

func (r *PostgresRepo) InsertMessage(ctx context.Context, m Message) error {
	const q = `
INSERT INTO messages (id, conversation_id, role, content, audio_url, duration_seconds, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		m.ID,
		m.ConversationID,
		m.Role,
		m.Content,
		m.AudioURL,
		m.DurationSeconds,
		m.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) AttachAudio(ctx context.Context, messageID, audioURL string, durationSeconds int) error {
	const q = `
UPDATE messages
SET audio_url = $2, duration_seconds = $3
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, q, messageID, audioURL, durationSeconds)
	return err
}

func (r *PostgresRepo) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	const q = `
SELECT id, conversation_id, role, content, audio_url, duration_seconds, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Role,
			&m.Content,
			&m.AudioURL,
			&m.DurationSeconds,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
