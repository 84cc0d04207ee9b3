package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine"
)

// SnapshotSource resolves an attack ID to its current snapshot.
type SnapshotSource interface {
	Snapshot(attackID uint64) (engine.AttackSnapshot, error)
}

// Archiver drains engine observations into the database off the engine
// goroutine. Observation listeners run synchronously under the engine
// mutex, so Observe only enqueues; a full queue drops the observation
// rather than stalling combat.
type Archiver struct {
	repo      *AttackRepository
	snapshots SnapshotSource
	logger    *zap.Logger
	queue     chan engine.Observation
}

// NewArchiver builds an archiver with a bounded queue.
func NewArchiver(repo *AttackRepository, snapshots SnapshotSource, logger *zap.Logger) *Archiver {
	return &Archiver{
		repo:      repo,
		snapshots: snapshots,
		logger:    logger,
		queue:     make(chan engine.Observation, 1024),
	}
}

// Observe is the bus listener. It never blocks.
func (a *Archiver) Observe(obs engine.Observation) {
	select {
	case a.queue <- obs:
	default:
		a.logger.Warn("archive queue full, observation dropped",
			zap.Uint64("attack_id", obs.AttackID),
			zap.String("type", string(obs.Type)),
		)
	}
}

// Run writes queued observations until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case obs := <-a.queue:
			a.persist(ctx, obs)
		}
	}
}

func (a *Archiver) persist(ctx context.Context, obs engine.Observation) {
	if err := a.repo.SaveObservation(ctx, obs); err != nil {
		a.logger.Error("archive observation failed",
			zap.Uint64("attack_id", obs.AttackID),
			zap.Error(err),
		)
	}
	if obs.Type != engine.ObservationAttackFinalized {
		return
	}
	snap, err := a.snapshots.Snapshot(obs.AttackID)
	if err != nil {
		a.logger.Error("snapshot finalized attack failed",
			zap.Uint64("attack_id", obs.AttackID),
			zap.Error(err),
		)
		return
	}
	if err := a.repo.SaveAttack(ctx, snap); err != nil {
		a.logger.Error("archive attack failed",
			zap.Uint64("attack_id", obs.AttackID),
			zap.Error(err),
		)
	}
}
