package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/engine/deck"
	"github.com/plunderhq/plunder-server/internal/poker"
)

// roundOutcome captures one round's evaluation of both sides.
type roundOutcome struct {
	attackerCategory poker.Category
	defenderCategory poker.Category
	attackerRank     int
	defenderRank     int
}

// showdownOutcome aggregates the pure evaluation of all rounds. It is
// computed without touching any shared state so a failed evaluation
// leaves everything unchanged.
type showdownOutcome struct {
	rounds            []roundOutcome
	result            Result
	attackerWins      int
	defenderWins      int
	attackerRankTotal int
	defenderRankTotal int
	attackerXP        uint64
	defenderXP        uint64
}

// ShowDown evaluates all rounds of a fully submitted attack, applies
// experience, points, booty or penalty, and finalizes it. Evaluation
// runs to completion on local copies before any shared state changes;
// a failed evaluation leaves the attack exactly as it was. Once the
// result is committed, ledger failures are logged rather than
// propagated so the attack always reaches Finalized.
func (e *Engine) ShowDown(attackID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.get(attackID)
	if err != nil {
		return err
	}
	if a.status != StatusShowingDown {
		return ErrInvalidAttackStatus
	}

	bogoIncrement := 1 + e.rng.Draw(a.rules.BogoMax)

	// Reveal the remainder of every round's community cards into a
	// local copy; the attack keeps only its flop until every round has
	// evaluated.
	remainder := a.rules.CommunityCards - a.rules.FlopSize
	community := make([][]deck.Value, len(a.community))
	for round := range a.community {
		community[round] = append(append([]deck.Value(nil), a.community[round]...), e.drawBurst(remainder)...)
	}

	outcome, err := e.evaluateRounds(a, community)
	if err != nil {
		return err
	}

	a.community = community
	a.result = outcome.result

	e.checkpoint(a, a.attacker)
	e.checkpoint(a, a.defender)
	if err := e.players.IncrementBogo(a.attacker, bogoIncrement); err != nil {
		e.logger.Warn("increment bogo failed",
			zap.Uint64("attack_id", a.id),
			zap.Error(err),
		)
	}

	e.publishRounds(a, outcome)
	e.applyOutcome(a, outcome)

	obs := newObservation(ObservationDetermineAttackResult, a, e.now())
	obs.Result = a.result
	e.bus.Publish(obs)

	e.logger.Info("attack result determined",
		zap.Uint64("attack_id", a.id),
		zap.String("result", a.result.String()),
		zap.Int("attacker_wins", outcome.attackerWins),
		zap.Int("defender_wins", outcome.defenderWins),
		zap.Int("attacker_rank_total", outcome.attackerRankTotal),
		zap.Int("defender_rank_total", outcome.defenderRankTotal),
	)

	e.settle(a)
	e.finalizeLocked(a)
	return nil
}

// evaluateRounds runs the pure per-round comparison against the given
// community cards without touching shared state. Re-running it on the
// same submissions and community cards reproduces identical ranks and
// the identical result.
func (e *Engine) evaluateRounds(a *attack, community [][]deck.Value) (*showdownOutcome, error) {
	attacker := a.submissions[sideAttacker]
	defender := a.submissions[sideDefender]

	outcome := &showdownOutcome{rounds: make([]roundOutcome, 0, len(community))}
	for round, cards := range community {
		attackerCat, attackerRank, err := e.eval.Evaluate(combine(attacker.values, cards))
		if err != nil {
			return nil, fmt.Errorf("round %d attacker hand: %w", round, err)
		}
		defenderCat, defenderRank, err := e.eval.Evaluate(combine(defender.values, cards))
		if err != nil {
			return nil, fmt.Errorf("round %d defender hand: %w", round, err)
		}

		outcome.rounds = append(outcome.rounds, roundOutcome{
			attackerCategory: attackerCat,
			defenderCategory: defenderCat,
			attackerRank:     attackerRank,
			defenderRank:     defenderRank,
		})
		outcome.attackerRankTotal += attackerRank
		outcome.defenderRankTotal += defenderRank

		// Strictly lower rank wins the round; a tie earns neither side
		// a win nor experience.
		switch {
		case attackerRank < defenderRank:
			outcome.attackerWins++
			outcome.attackerXP += uint64(poker.RankCeiling - attackerRank)
			outcome.defenderXP += uint64(poker.RankCeiling-defenderRank) / 4
		case defenderRank < attackerRank:
			outcome.defenderWins++
			outcome.defenderXP += uint64(poker.RankCeiling - defenderRank)
			outcome.attackerXP += uint64(poker.RankCeiling-attackerRank) / 4
		}
	}

	switch {
	case outcome.attackerWins > outcome.defenderWins:
		outcome.result = ResultSuccess
	case outcome.defenderWins > outcome.attackerWins:
		outcome.result = ResultFail
	default:
		outcome.result = ResultDraw
	}
	return outcome, nil
}

// publishRounds emits one evaluation observation per round, in round
// order.
func (e *Engine) publishRounds(a *attack, outcome *showdownOutcome) {
	now := e.now()
	for round, r := range outcome.rounds {
		obs := newObservation(ObservationEvaluateHands, a, now)
		obs.Round = round
		obs.AttackerCategory = r.attackerCategory
		obs.DefenderCategory = r.defenderCategory
		obs.AttackerRank = r.attackerRank
		obs.DefenderRank = r.defenderRank
		e.bus.Publish(obs)
	}
}

func (e *Engine) checkpoint(a *attack, account string) {
	if err := e.players.Checkpoint(account); err != nil {
		e.logger.Warn("player checkpoint failed",
			zap.Uint64("attack_id", a.id),
			zap.String("account", account),
			zap.Error(err),
		)
	}
}

// applyOutcome grants the experience and precision points computed by
// evaluateRounds.
func (e *Engine) applyOutcome(a *attack, outcome *showdownOutcome) {
	attacker := a.submissions[sideAttacker]
	defender := a.submissions[sideDefender]

	if outcome.attackerXP > 0 {
		e.grantExperience(a, attacker.tokenIDs, a.attacker, outcome.attackerXP)
	}
	if outcome.defenderXP > 0 {
		e.grantExperience(a, defender.tokenIDs, a.defender, outcome.defenderXP)
	}

	// The side with the lower summed rank played more precisely and
	// earns the difference as points, independent of the result.
	var account string
	var points uint64
	switch {
	case outcome.attackerRankTotal < outcome.defenderRankTotal:
		account = a.attacker
		points = uint64(outcome.defenderRankTotal - outcome.attackerRankTotal)
	case outcome.defenderRankTotal < outcome.attackerRankTotal:
		account = a.defender
		points = uint64(outcome.attackerRankTotal - outcome.defenderRankTotal)
	default:
		return
	}
	if err := e.players.AddPoints(account, points); err != nil {
		e.logger.Warn("add points failed",
			zap.Uint64("attack_id", a.id),
			zap.String("account", account),
			zap.Error(err),
		)
	}
}

func (e *Engine) grantExperience(a *attack, tokenIDs []uint64, account string, xp uint64) {
	if err := e.cards.GrantExperienceBatch(tokenIDs, xp); err != nil {
		e.logger.Warn("grant card experience failed",
			zap.Uint64("attack_id", a.id),
			zap.Error(err),
		)
	}
	if err := e.players.GrantExperience(account, xp); err != nil {
		e.logger.Warn("grant player experience failed",
			zap.Uint64("attack_id", a.id),
			zap.String("account", account),
			zap.Error(err),
		)
	}
}

func combine(submitted, community []deck.Value) []deck.Value {
	hand := make([]deck.Value, 0, len(submitted)+len(community))
	hand = append(hand, submitted...)
	hand = append(hand, community...)
	return hand
}
