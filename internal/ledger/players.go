package ledger

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// player is one account's combat bookkeeping record.
type player struct {
	account      string
	username     string
	hasPlayed    bool
	hasAttacked  bool
	points       uint64
	experience   uint64
	bogo         uint64
	lastDefended time.Time
	checkpointAt time.Time
	outgoing     []uint64
	incoming     uint64 // pending incoming attack id, 0 when clear
}

// PlayerSnapshot is an external view of a player record.
type PlayerSnapshot struct {
	Account      string
	Username     string
	HasPlayed    bool
	HasAttacked  bool
	Points       uint64
	Experience   uint64
	Bogo         uint64
	LastDefended time.Time
	Outgoing     []uint64
	Incoming     uint64
}

// PlayerLedger owns all player records, keyed by account. Records are
// created lazily the first time an account participates.
type PlayerLedger struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	players map[string]*player
}

// NewPlayerLedger constructs an empty player ledger.
func NewPlayerLedger(logger *zap.Logger) *PlayerLedger {
	return &PlayerLedger{
		logger:  logger,
		players: make(map[string]*player),
	}
}

// SetUsername assigns a display name to an account.
func (l *PlayerLedger) SetUsername(account, username string) error {
	if username == "" {
		return fmt.Errorf("empty username for %s", account)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(account).username = username
	return nil
}

// Checkpoint snapshots the account's reward-accrual state ahead of a
// settlement.
func (l *PlayerLedger) Checkpoint(account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(account).checkpointAt = time.Now()
	return nil
}

// AddPoints increments an account's points.
func (l *PlayerLedger) AddPoints(account string, points uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(account).points += points
	return nil
}

// GrantExperience adds combat experience to an account.
func (l *PlayerLedger) GrantExperience(account string, xp uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(account).experience += xp
	return nil
}

// IncrementBogo bumps the experience-multiplier counter.
func (l *PlayerLedger) IncrementBogo(account string, n uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(account).bogo += n
	return nil
}

// OutgoingCount reports the account's pending outgoing attacks.
func (l *PlayerLedger) OutgoingCount(account string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.players[account]; ok {
		return len(p.outgoing)
	}
	return 0
}

// HasIncoming reports whether the account already has a pending
// incoming attack.
func (l *PlayerLedger) HasIncoming(account string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.players[account]; ok {
		return p.incoming != 0
	}
	return false
}

// TrackAttack records a pending attack on both participants. The
// defender's single incoming slot must be clear.
func (l *PlayerLedger) TrackAttack(attacker, defender string, attackID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	def := l.ensure(defender)
	if def.incoming != 0 {
		return fmt.Errorf("defender %s already under attack %d", defender, def.incoming)
	}
	atk := l.ensure(attacker)
	atk.outgoing = append(atk.outgoing, attackID)
	atk.hasAttacked = true
	def.incoming = attackID
	return nil
}

// ReleaseAttack clears a resolved attack from both participants and
// stamps the defender's last-defended time.
func (l *PlayerLedger) ReleaseAttack(attacker, defender string, attackID uint64, defendedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	atk := l.ensure(attacker)
	removed := false
	for i, id := range atk.outgoing {
		if id == attackID {
			atk.outgoing = append(atk.outgoing[:i], atk.outgoing[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		return fmt.Errorf("attack %d not tracked for attacker %s", attackID, attacker)
	}

	def := l.ensure(defender)
	if def.incoming != attackID {
		return fmt.Errorf("attack %d not tracked for defender %s", attackID, defender)
	}
	def.incoming = 0
	def.lastDefended = defendedAt
	atk.hasPlayed = true
	def.hasPlayed = true
	return nil
}

// Snapshot returns a copy of an account's record.
func (l *PlayerLedger) Snapshot(account string) (PlayerSnapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.players[account]
	if !ok {
		return PlayerSnapshot{}, false
	}
	return PlayerSnapshot{
		Account:      p.account,
		Username:     p.username,
		HasPlayed:    p.hasPlayed,
		HasAttacked:  p.hasAttacked,
		Points:       p.points,
		Experience:   p.experience,
		Bogo:         p.bogo,
		LastDefended: p.lastDefended,
		Outgoing:     append([]uint64(nil), p.outgoing...),
		Incoming:     p.incoming,
	}, true
}

// ensure returns the record for an account, creating it on first use.
// Caller holds the write lock.
func (l *PlayerLedger) ensure(account string) *player {
	p, ok := l.players[account]
	if !ok {
		p = &player{account: account}
		l.players[account] = p
		l.logger.Debug("player record created", zap.String("account", account))
	}
	return p
}
