package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine"
)

const attackSchema = `
CREATE TABLE IF NOT EXISTS attacks (
	id             BIGINT PRIMARY KEY,
	attacker       TEXT NOT NULL,
	defender       TEXT NOT NULL,
	status         TEXT NOT NULL,
	result         TEXT NOT NULL,
	config_version INT NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	archived_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attack_observations (
	id        UUID PRIMARY KEY,
	attack_id BIGINT NOT NULL,
	type      TEXT NOT NULL,
	attacker  TEXT NOT NULL,
	defender  TEXT NOT NULL,
	round     INT NOT NULL,
	attacker_category TEXT NOT NULL,
	defender_category TEXT NOT NULL,
	attacker_rank INT NOT NULL,
	defender_rank INT NOT NULL,
	result    TEXT NOT NULL,
	emitted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attack_observations_attack
	ON attack_observations (attack_id, emitted_at);
`

// AttackRepository persists finalized attacks and the observation
// stream that led to them.
type AttackRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAttackRepository wraps the pool. Call EnsureSchema before use.
func NewAttackRepository(pool *pgxpool.Pool, logger *zap.Logger) *AttackRepository {
	return &AttackRepository{pool: pool, logger: logger}
}

// EnsureSchema creates the archive tables if they do not exist.
func (r *AttackRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, attackSchema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

// SaveObservation appends one engine observation to the archive.
func (r *AttackRepository) SaveObservation(ctx context.Context, obs engine.Observation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attack_observations (
			id, attack_id, type, attacker, defender, round,
			attacker_category, defender_category, attacker_rank, defender_rank,
			result, emitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		obs.ID,
		obs.AttackID,
		string(obs.Type),
		obs.Attacker,
		obs.Defender,
		obs.Round,
		obs.AttackerCategory.String(),
		obs.DefenderCategory.String(),
		obs.AttackerRank,
		obs.DefenderRank,
		obs.Result.String(),
		obs.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// SaveAttack upserts the final state of an attack.
func (r *AttackRepository) SaveAttack(ctx context.Context, snap engine.AttackSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attacks (id, attacker, defender, status, result, config_version, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = $4, result = $5, archived_at = now()
	`,
		snap.ID,
		snap.Attacker,
		snap.Defender,
		snap.Status.String(),
		snap.Result.String(),
		snap.ConfigVersion,
		snap.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert attack %d: %w", snap.ID, err)
	}
	return nil
}

// ArchivedAttack is one row of the attacks table.
type ArchivedAttack struct {
	ID            uint64
	Attacker      string
	Defender      string
	Status        string
	Result        string
	ConfigVersion int
	StartedAt     time.Time
	ArchivedAt    time.Time
}

// RecentAttacks returns the most recently archived attacks, newest
// first.
func (r *AttackRepository) RecentAttacks(ctx context.Context, limit int) ([]ArchivedAttack, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, attacker, defender, status, result, config_version, started_at, archived_at
		FROM attacks
		ORDER BY archived_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent attacks: %w", err)
	}
	defer rows.Close()

	var out []ArchivedAttack
	for rows.Next() {
		var a ArchivedAttack
		if err := rows.Scan(&a.ID, &a.Attacker, &a.Defender, &a.Status, &a.Result,
			&a.ConfigVersion, &a.StartedAt, &a.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan attack row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
