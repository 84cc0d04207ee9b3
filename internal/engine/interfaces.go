package engine

import (
	"time"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
	"github.com/plunderhq/plunder-server/internal/poker"
)

// ConfigProvider exposes the active rule parameter set. Read-only to
// the engine.
type ConfigProvider interface {
	Active() config.GameConfig
}

// CardInfo is a point-in-time view of one tokenized card.
type CardInfo struct {
	ID         uint64
	Owner      string
	Power      uint64
	Value      deck.Value // zero for jokers
	Joker      bool
	InUse      bool
	Spent      bool
	Level      int
	Experience uint64
}

// CardLedger owns all card state. The engine never holds card copies;
// it reads and mutates through this interface only.
type CardLedger interface {
	// Info returns the current view of a card.
	Info(id uint64) (CardInfo, error)

	// MarkInUse commits a card to an attack. Fails if the card is
	// already in use or spent.
	MarkInUse(id, attackID uint64) error

	// Release clears the in-use flag of a card.
	Release(id uint64) error

	// Spend removes a card from play permanently.
	Spend(id uint64) error

	// Transfer changes the owner of a card.
	Transfer(id uint64, to string) error

	// GrantExperienceBatch adds experience to every listed card.
	// Experience never decreases.
	GrantExperienceBatch(ids []uint64, amount uint64) error
}

// PlayerLedger owns all player state.
type PlayerLedger interface {
	// Checkpoint snapshots the player's reward-accrual state ahead of
	// a settlement.
	Checkpoint(account string) error

	// AddPoints increments the player's points.
	AddPoints(account string, points uint64) error

	// GrantExperience adds combat experience to the player.
	GrantExperience(account string, xp uint64) error

	// IncrementBogo bumps the player's experience-multiplier counter.
	IncrementBogo(account string, n uint64) error

	// OutgoingCount reports the player's pending outgoing attacks.
	OutgoingCount(account string) int

	// HasIncoming reports whether the player already has a pending
	// incoming attack.
	HasIncoming(account string) bool

	// TrackAttack records a pending attack on both participants.
	TrackAttack(attacker, defender string, attackID uint64) error

	// ReleaseAttack removes a resolved attack from both participants
	// and stamps the defender's last-defended time.
	ReleaseAttack(attacker, defender string, attackID uint64, defendedAt time.Time) error
}

// RewardLedger moves accrued reward shares between accounts. Moves
// reallocate value, never create or destroy it.
type RewardLedger interface {
	// MoveShare transfers bps basis points of from's accrued share to
	// to.
	MoveShare(from, to string, bps uint64) error
}

// HandEvaluator ranks a 5-to-7 card combination. Lower rank means a
// stronger hand; poker.RankCeiling is the weakest possible rank.
type HandEvaluator interface {
	Evaluate(values []deck.Value) (poker.Category, int, error)
}
