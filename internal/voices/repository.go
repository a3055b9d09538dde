package voices

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("voices: not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (VoiceProfile, error)

	// Default returns the single voice flagged is_default.
	Default(ctx context.Context) (VoiceProfile, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const voiceColumns = `id, name, provider, provider_voice_id, is_default, is_premium, created_at`

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (VoiceProfile, error) {
	q := `SELECT ` + voiceColumns + ` FROM voice_profiles WHERE id = $1`
	return scanVoice(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) Default(ctx context.Context) (VoiceProfile, error) {
	q := `SELECT ` + voiceColumns + ` FROM voice_profiles WHERE is_default = TRUE LIMIT 1`
	return scanVoice(r.db.QueryRowContext(ctx, q))
}

func scanVoice(row *sql.Row) (VoiceProfile, error) {
	var v VoiceProfile
	if err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Provider,
		&v.ProviderVoiceID,
		&v.IsDefault,
		&v.IsPremium,
		&v.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VoiceProfile{}, ErrNotFound
		}
		return VoiceProfile{}, err
	}
	return v, nil
}
