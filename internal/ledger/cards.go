// Package ledger provides the in-memory card, player and reward
// ledgers the engine orchestrates. Each ledger owns its records
// outright; the engine addresses them by token identifier or account
// key and never holds copies.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
)

// levelStep is the experience required per card level.
const levelStep = 10000

// card is one tokenized combat unit.
type card struct {
	id         uint64
	owner      string
	durability int
	power      uint64
	value      deck.Value
	joker      bool
	level      int
	experience uint64
	inUseBy    uint64 // attack id, 0 when free
	spent      bool
	lastAdded  time.Time
}

// CardLedger owns all cards, keyed by token identifier.
type CardLedger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	cards  map[uint64]*card
	nextID uint64
}

// NewCardLedger constructs an empty card ledger.
func NewCardLedger(logger *zap.Logger) *CardLedger {
	return &CardLedger{
		logger: logger,
		cards:  make(map[uint64]*card),
	}
}

// Mint creates a card for an owner and returns its token identifier.
// A joker card carries no natural value; its effective value is
// supplied at submission time.
func (l *CardLedger) Mint(owner string, power uint64, value deck.Value, joker bool, durability int) (uint64, error) {
	if owner == "" {
		return 0, fmt.Errorf("mint: empty owner")
	}
	if !joker && !deck.Valid(value) {
		return 0, fmt.Errorf("mint: invalid card value %d", value)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	c := &card{
		id:         l.nextID,
		owner:      owner,
		durability: durability,
		power:      power,
		value:      value,
		joker:      joker,
		level:      1,
		lastAdded:  time.Now(),
	}
	if joker {
		c.value = 0
	}
	l.cards[c.id] = c

	l.logger.Debug("card minted",
		zap.Uint64("token_id", c.id),
		zap.String("owner", owner),
		zap.Bool("joker", joker),
	)
	return c.id, nil
}

// Info returns the current view of a card.
func (l *CardLedger) Info(id uint64) (engine.CardInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.cards[id]
	if !ok {
		return engine.CardInfo{}, fmt.Errorf("card %d not found", id)
	}
	return engine.CardInfo{
		ID:         c.id,
		Owner:      c.owner,
		Power:      c.power,
		Value:      c.value,
		Joker:      c.joker,
		InUse:      c.inUseBy != 0,
		Spent:      c.spent,
		Level:      c.level,
		Experience: c.experience,
	}, nil
}

// MarkInUse commits a card to an attack. A card committed elsewhere or
// already spent is rejected.
func (l *CardLedger) MarkInUse(id, attackID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	if c.spent {
		return fmt.Errorf("card %d already spent", id)
	}
	if c.inUseBy != 0 {
		return fmt.Errorf("card %d already committed to attack %d", id, c.inUseBy)
	}
	c.inUseBy = attackID
	return nil
}

// Release clears a card's in-use flag.
func (l *CardLedger) Release(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	c.inUseBy = 0
	return nil
}

// Spend removes a card from play permanently.
func (l *CardLedger) Spend(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	c.spent = true
	c.inUseBy = 0
	return nil
}

// Transfer changes a card's owner. Transferring to the current owner
// is a no-op.
func (l *CardLedger) Transfer(id uint64, to string) error {
	if to == "" {
		return fmt.Errorf("transfer card %d: empty recipient", id)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	if c.owner == to {
		return nil
	}
	from := c.owner
	c.owner = to
	c.lastAdded = time.Now()

	l.logger.Debug("card transferred",
		zap.Uint64("token_id", id),
		zap.String("from", from),
		zap.String("to", to),
	)
	return nil
}

// GrantExperienceBatch adds experience to every listed card and levels
// them up across thresholds. Experience never decreases.
func (l *CardLedger) GrantExperienceBatch(ids []uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		c, ok := l.cards[id]
		if !ok {
			return fmt.Errorf("card %d not found", id)
		}
		c.experience += amount
		c.level = 1 + int(c.experience/levelStep)
	}
	return nil
}

// Count reports how many unspent cards an account owns.
func (l *CardLedger) Count(owner string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, c := range l.cards {
		if c.owner == owner && !c.spent {
			n++
		}
	}
	return n
}

// Owned lists the token identifiers of an account's unspent cards.
func (l *CardLedger) Owned(owner string) []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []uint64
	for id, c := range l.cards {
		if c.owner == owner && !c.spent {
			out = append(out, id)
		}
	}
	return out
}
