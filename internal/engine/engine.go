// Package engine implements the attack resolution engine: the state
// machine carrying one combat instance from creation through
// settlement, the per-round hand comparison, and the booty and penalty
// distribution that follows.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine/deck"
	"github.com/plunderhq/plunder-server/internal/random"
)

// Engine orchestrates the card, player and reward ledgers to run
// attack lifecycles. Every state-changing operation runs under one
// mutex: an operation either completes fully or leaves all shared
// state unchanged, and calls are totally ordered.
type Engine struct {
	mu      sync.Mutex
	logger  *zap.Logger
	cfg     ConfigProvider
	cards   CardLedger
	players PlayerLedger
	rewards RewardLedger
	rng     random.Source
	eval    HandEvaluator
	bus     *ObservationBus
	now     func() time.Time

	attacks map[uint64]*attack
	nextID  uint64
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock replaces the engine's time source. Deadlines are checked
// against this clock at the moment of each call.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an engine over the given collaborators.
func New(
	cfg ConfigProvider,
	cards CardLedger,
	players PlayerLedger,
	rewards RewardLedger,
	rng random.Source,
	eval HandEvaluator,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		logger:  logger,
		cfg:     cfg,
		cards:   cards,
		players: players,
		rewards: rewards,
		rng:     rng,
		eval:    eval,
		bus:     NewObservationBus(),
		now:     time.Now,
		attacks: make(map[uint64]*attack),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observations returns the engine's observation bus.
func (e *Engine) Observations() *ObservationBus {
	return e.bus
}

// CreateAttack opens a new attack between two accounts and returns its
// identifier. Identifiers increase monotonically and are never reused.
func (e *Engine) CreateAttack(attacker, defender string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if attacker == "" || defender == "" || attacker == defender {
		return 0, ErrInvalidAddress
	}

	rules := e.cfg.Active()
	if e.players.HasIncoming(defender) {
		return 0, ErrDefenderUnderAttack
	}
	if e.players.OutgoingCount(attacker) >= rules.MaxAttacks {
		return 0, ErrTooManyAttacks
	}

	e.nextID++
	a := &attack{
		id:        e.nextID,
		status:    StatusFlopping,
		result:    ResultNone,
		attacker:  attacker,
		defender:  defender,
		startedAt: e.now(),
		rules:     rules,
		community: make([][]deck.Value, rules.Rounds),
	}
	if err := e.players.TrackAttack(attacker, defender, a.id); err != nil {
		e.nextID--
		return 0, fmt.Errorf("track attack: %w", err)
	}
	e.attacks[a.id] = a

	e.logger.Info("attack created",
		zap.Uint64("attack_id", a.id),
		zap.String("attacker", attacker),
		zap.String("defender", defender),
		zap.Int("config_version", rules.Version),
	)
	e.bus.Publish(newObservation(ObservationAttackCreated, a, a.startedAt))
	return a.id, nil
}

// Flop draws the first community-card burst for every round and opens
// the attack submission window.
func (e *Engine) Flop(attackID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.get(attackID)
	if err != nil {
		return err
	}
	if a.status != StatusFlopping {
		return ErrInvalidAttackStatus
	}

	for round := range a.community {
		a.community[round] = e.drawBurst(a.rules.FlopSize)
	}
	a.status = StatusWaitingForAttack

	e.logger.Info("attack flopped",
		zap.Uint64("attack_id", a.id),
		zap.Int("rounds", len(a.community)),
		zap.Int("flop_size", a.rules.FlopSize),
	)
	return nil
}

// Submit records one side's deck. The attacker submits first, then the
// defender; each side is checked against its own deadline and the
// configured card constraints, and every submitted card is committed
// to the attack.
func (e *Engine) Submit(attackID uint64, caller string, tokenIDs []uint64, jokerValues []deck.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.get(attackID)
	if err != nil {
		return err
	}

	var side int
	switch a.status {
	case StatusWaitingForAttack:
		if caller != a.attacker {
			return ErrForbidden
		}
		if e.now().After(a.attackDeadline()) {
			return ErrAttackTimeover
		}
		side = sideAttacker
	case StatusWaitingForDefense:
		if caller != a.defender {
			return ErrForbidden
		}
		if e.now().After(a.defenseDeadline()) {
			return ErrDefenseTimeover
		}
		side = sideDefender
	default:
		return ErrInvalidAttackStatus
	}

	sub, err := e.buildSubmission(a, caller, tokenIDs, jokerValues)
	if err != nil {
		return err
	}

	// All validations passed; commit the cards. A ledger failure here
	// unwinds the cards already marked so the call stays all-or-nothing.
	for i, id := range tokenIDs {
		if err := e.cards.MarkInUse(id, a.id); err != nil {
			for _, marked := range tokenIDs[:i] {
				if rerr := e.cards.Release(marked); rerr != nil {
					e.logger.Warn("unwind card release failed",
						zap.Uint64("attack_id", a.id),
						zap.Uint64("token_id", marked),
						zap.Error(rerr),
					)
				}
			}
			return fmt.Errorf("mark card %d in use: %w", id, err)
		}
	}

	a.submissions[side] = sub
	if side == sideAttacker {
		a.status = StatusWaitingForDefense
	} else {
		a.status = StatusShowingDown
	}

	e.logger.Info("deck submitted",
		zap.Uint64("attack_id", a.id),
		zap.String("account", caller),
		zap.Int("cards", len(tokenIDs)),
		zap.Int("jokers", len(jokerValues)),
		zap.Uint64("booty_points", sub.bootyPoints),
		zap.String("status", a.status.String()),
	)
	return nil
}

// buildSubmission validates a deck against the attack's rules and
// resolves card values without mutating any shared state.
func (e *Engine) buildSubmission(a *attack, caller string, tokenIDs []uint64, jokerValues []deck.Value) (*submission, error) {
	rules := a.rules
	if len(tokenIDs) < rules.MinCards || len(tokenIDs) > rules.MaxCards {
		return nil, ErrInvalidNumberOfCards
	}
	if len(jokerValues) > rules.MaxJokers {
		return nil, ErrInvalidNumberOfJokers
	}
	seen := make(map[uint64]bool, len(tokenIDs))
	for _, id := range tokenIDs {
		if seen[id] {
			return nil, ErrDuplicateCard
		}
		seen[id] = true
	}

	sub := &submission{
		account:     caller,
		tokenIDs:    append([]uint64(nil), tokenIDs...),
		jokerValues: append([]deck.Value(nil), jokerValues...),
		values:      make([]deck.Value, len(tokenIDs)),
	}

	// Joker values are consumed in submission order by the joker cards
	// only; regular cards keep their natural value.
	next := 0
	for i, id := range tokenIDs {
		info, err := e.cards.Info(id)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", id, err)
		}
		if info.Owner != caller || info.InUse || info.Spent {
			return nil, fmt.Errorf("card %d: %w", id, ErrCardUnavailable)
		}
		if info.Joker {
			if next >= len(jokerValues) {
				return nil, ErrInvalidJokerCard
			}
			v := jokerValues[next]
			next++
			if !deck.Valid(v) {
				return nil, ErrInvalidJokerCard
			}
			sub.values[i] = v
		} else {
			if !deck.Valid(info.Value) {
				return nil, fmt.Errorf("card %d: %w", id, ErrCardUnavailable)
			}
			sub.values[i] = info.Value
		}
		sub.bootyPoints += info.Power
	}
	if next != len(jokerValues) {
		return nil, ErrInvalidNumberOfJokers
	}
	if !deck.Distinct(sub.values) {
		return nil, ErrDuplicateCardValue
	}
	return sub, nil
}

// Snapshot returns a consistent external view of an attack.
func (e *Engine) Snapshot(attackID uint64) (AttackSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.get(attackID)
	if err != nil {
		return AttackSnapshot{}, err
	}
	return a.snapshot(), nil
}

// Attacks lists snapshots of every known attack.
func (e *Engine) Attacks() []AttackSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]AttackSnapshot, 0, len(e.attacks))
	for id := uint64(1); id <= e.nextID; id++ {
		if a, ok := e.attacks[id]; ok {
			out = append(out, a.snapshot())
		}
	}
	return out
}

func (e *Engine) get(attackID uint64) (*attack, error) {
	a, ok := e.attacks[attackID]
	if !ok {
		return nil, ErrAttackNotFound
	}
	return a, nil
}

// drawBurst consumes n sequential draws and returns them as card
// values. Tokenized cards are not a finite deck, so draws are
// independent and repeats across bursts are legal.
func (e *Engine) drawBurst(n int) []deck.Value {
	burst := make([]deck.Value, n)
	for i := range burst {
		burst[i] = deck.Value(uint64(deck.MinValue) + e.rng.Draw(uint64(deck.MaxValue)))
	}
	return burst
}
