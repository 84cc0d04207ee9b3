package ledger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// bpsScale is the basis-point denominator: 10000 bps = 100%.
const bpsScale = 10000

// RewardLedger tracks each account's accrued reward share. Booty
// moves reallocate shares between accounts; the total is conserved.
type RewardLedger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	shares map[string]uint64
}

// NewRewardLedger constructs an empty reward ledger.
func NewRewardLedger(logger *zap.Logger) *RewardLedger {
	return &RewardLedger{
		logger: logger,
		shares: make(map[string]uint64),
	}
}

// Credit accrues reward share to an account. This is the inflow from
// the global reward-pool formula, outside the engine's scope.
func (l *RewardLedger) Credit(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shares[account] += amount
}

// MoveShare transfers bps basis points of from's accrued share to to.
func (l *RewardLedger) MoveShare(from, to string, bps uint64) error {
	if bps > bpsScale {
		return fmt.Errorf("move share: %d bps exceeds scale", bps)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.shares[from] * bps / bpsScale
	l.shares[from] -= amount
	l.shares[to] += amount

	l.logger.Debug("reward share moved",
		zap.String("from", from),
		zap.String("to", to),
		zap.Uint64("bps", bps),
		zap.Uint64("amount", amount),
	)
	return nil
}

// Share reports an account's accrued reward share.
func (l *RewardLedger) Share(account string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shares[account]
}

// Total reports the sum of all accrued shares.
func (l *RewardLedger) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, s := range l.shares {
		total += s
	}
	return total
}
