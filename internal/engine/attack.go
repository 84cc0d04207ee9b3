package engine

import (
	"time"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
)

// Submission side indices.
const (
	sideAttacker = 0
	sideDefender = 1
)

// submission is one side's committed deck. Immutable once recorded.
type submission struct {
	account     string
	tokenIDs    []uint64
	jokerValues []deck.Value
	values      []deck.Value // resolved per card, same order as tokenIDs
	bootyPoints uint64       // sum of submitted card power
}

// attack is one combat instance. Owned by the engine, guarded by the
// engine mutex; external callers only ever see snapshots.
type attack struct {
	id        uint64
	status    AttackStatus
	result    Result
	attacker  string
	defender  string
	startedAt time.Time

	// rules is the parameter set active at creation; it governs the
	// attack for its whole life even if a newer version activates.
	rules config.GameConfig

	// community holds the per-round drawn card values: the flop burst
	// at creation, the remainder burst at showdown.
	community [][]deck.Value

	submissions [2]*submission
}

func (a *attack) attackDeadline() time.Time {
	return a.startedAt.Add(a.rules.AttackPeriod)
}

func (a *attack) defenseDeadline() time.Time {
	return a.startedAt.Add(a.rules.DefensePeriod)
}

// SubmissionSnapshot is an immutable view of one side's deck.
type SubmissionSnapshot struct {
	Account     string
	TokenIDs    []uint64
	Values      []deck.Value
	BootyPoints uint64
}

// AttackSnapshot is a consistent external view of an attack.
type AttackSnapshot struct {
	ID            uint64
	Status        AttackStatus
	Result        Result
	Attacker      string
	Defender      string
	StartedAt     time.Time
	ConfigVersion int
	Community     [][]deck.Value
	Submissions   [2]*SubmissionSnapshot
}

func (a *attack) snapshot() AttackSnapshot {
	snap := AttackSnapshot{
		ID:            a.id,
		Status:        a.status,
		Result:        a.result,
		Attacker:      a.attacker,
		Defender:      a.defender,
		StartedAt:     a.startedAt,
		ConfigVersion: a.rules.Version,
		Community:     make([][]deck.Value, len(a.community)),
	}
	for i, round := range a.community {
		snap.Community[i] = append([]deck.Value(nil), round...)
	}
	for side, sub := range a.submissions {
		if sub == nil {
			continue
		}
		snap.Submissions[side] = &SubmissionSnapshot{
			Account:     sub.account,
			TokenIDs:    append([]uint64(nil), sub.tokenIDs...),
			Values:      append([]deck.Value(nil), sub.values...),
			BootyPoints: sub.bootyPoints,
		}
	}
	return snap
}
