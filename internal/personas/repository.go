package personas

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("personas: not found")

// Repository is read-only: persona rows are reference data.
type Repository interface {
	// GetByID returns the persona, including inactive ones; callers decide
	// whether inactive personas are usable for their operation.
	GetByID(ctx context.Context, id string) (Persona, error)

	// Default returns the fallback persona used when a trigger or turn
	// carries no persona id and the user has no preference set.
	Default(ctx context.Context) (Persona, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const personaColumns = `id, name, category, prompt_template, default_voice_id, is_premium, is_active, memory_enabled, created_at`

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Persona, error) {
	q := `SELECT ` + personaColumns + ` FROM personas WHERE id = $1`
	return scanPersona(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) Default(ctx context.Context) (Persona, error) {
	// The seed data guarantees exactly one active default persona.
	q := `SELECT ` + personaColumns + ` FROM personas WHERE is_active = TRUE ORDER BY created_at ASC LIMIT 1`
	return scanPersona(r.db.QueryRowContext(ctx, q))
}

func scanPersona(row *sql.Row) (Persona, error) {
	var p Persona
	var voiceID sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.PromptTemplate,
		&voiceID,
		&p.IsPremium,
		&p.IsActive,
		&p.MemoryEnabled,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Persona{}, ErrNotFound
		}
		return Persona{}, err
	}
	p.DefaultVoiceID = voiceID.String
	return p, nil
}
