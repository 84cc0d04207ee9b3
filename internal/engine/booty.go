package engine

import (
	"go.uber.org/zap"
)

// settle applies the booty transfer or card seizure that follows a
// decisive result. A draw moves nothing. The result is already
// committed when settle runs, so ledger failures are logged and the
// attack still finalizes.
func (e *Engine) settle(a *attack) {
	switch a.result {
	case ResultSuccess:
		e.settleSuccess(a)
	case ResultFail:
		e.settleFail(a)
	}
}

// settleSuccess moves a share of the defender's accrued reward to the
// attacker. The percentage scales with how decisively the attacker's
// booty points exceed the defender's.
func (e *Engine) settleSuccess(a *attack) {
	attacker := a.submissions[sideAttacker]
	defender := a.submissions[sideDefender]

	bps := bootyBps(a.rules.BootyBpsMin, a.rules.BootyBpsMax, attacker.bootyPoints, defender.bootyPoints)
	if err := e.rewards.MoveShare(a.defender, a.attacker, bps); err != nil {
		e.logger.Warn("move booty share failed",
			zap.Uint64("attack_id", a.id),
			zap.Uint64("booty_bps", bps),
			zap.Error(err),
		)
		return
	}

	e.logger.Info("booty transferred",
		zap.Uint64("attack_id", a.id),
		zap.Uint64("booty_bps", bps),
		zap.Uint64("attacker_points", attacker.bootyPoints),
		zap.Uint64("defender_points", defender.bootyPoints),
	)
}

// settleFail seizes attacker cards in proportion to the defender's
// booty point lead. Seized indices are drawn with replacement, so a
// card already handed over can be drawn again; the repeated transfer
// is a no-op.
func (e *Engine) settleFail(a *attack) {
	attacker := a.submissions[sideAttacker]
	defender := a.submissions[sideDefender]

	count := seizureCount(attacker.bootyPoints, defender.bootyPoints, len(attacker.tokenIDs))
	for i := 0; i < count; i++ {
		idx := e.rng.Draw(uint64(len(attacker.tokenIDs)))
		tokenID := attacker.tokenIDs[idx]
		if err := e.cards.Transfer(tokenID, a.defender); err != nil {
			e.logger.Warn("seize card failed",
				zap.Uint64("attack_id", a.id),
				zap.Uint64("token_id", tokenID),
				zap.Error(err),
			)
			continue
		}
		e.logger.Info("card seized",
			zap.Uint64("attack_id", a.id),
			zap.Uint64("token_id", tokenID),
			zap.String("new_owner", a.defender),
		)
	}
}

// bootyBps interpolates the booty percentage in basis points. The
// minimum applies whenever the defender matched or exceeded the
// attacker's booty points.
func bootyBps(min, max, attackerPoints, defenderPoints uint64) uint64 {
	if attackerPoints == 0 || defenderPoints >= attackerPoints {
		return min
	}
	return min + (attackerPoints-defenderPoints)*(max-min)/attackerPoints
}

// seizureCount is the number of attacker cards forfeited on a failed
// attack: floor((def-atk) * cardCount / def), zero unless the defender
// led on booty points.
func seizureCount(attackerPoints, defenderPoints uint64, attackerCards int) int {
	if defenderPoints <= attackerPoints {
		return 0
	}
	return int((defenderPoints - attackerPoints) * uint64(attackerCards) / defenderPoints)
}

// Finalize forces a stalled attack forward once its deadline has
// elapsed, or closes out a fully submitted one. Anyone may call it.
func (e *Engine) Finalize(attackID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.get(attackID)
	if err != nil {
		return err
	}

	switch a.status {
	case StatusWaitingForAttack:
		if !e.now().After(a.attackDeadline()) {
			return ErrWaitingForAttack
		}
	case StatusWaitingForDefense:
		if !e.now().After(a.defenseDeadline()) {
			return ErrWaitingForDefense
		}
	case StatusShowingDown:
		// Always allowed; the result stays ResultNone because no
		// showdown ran.
	default:
		return ErrInvalidAttackStatus
	}

	e.finalizeLocked(a)
	return nil
}

// finalizeLocked closes the attack: releases it from both players,
// stamps the defender's last-defended time and spends or releases the
// committed cards according to the result. Caller holds the engine
// mutex.
func (e *Engine) finalizeLocked(a *attack) {
	now := e.now()
	a.status = StatusFinalized

	if err := e.players.ReleaseAttack(a.attacker, a.defender, a.id, now); err != nil {
		e.logger.Warn("release attack refs failed",
			zap.Uint64("attack_id", a.id),
			zap.Error(err),
		)
	}

	e.closeOutCards(a, sideAttacker, a.result == ResultFail)
	e.closeOutCards(a, sideDefender, a.result == ResultSuccess)

	obs := newObservation(ObservationAttackFinalized, a, now)
	obs.Result = a.result
	e.bus.Publish(obs)

	e.logger.Info("attack finalized",
		zap.Uint64("attack_id", a.id),
		zap.String("result", a.result.String()),
	)
}

// closeOutCards spends the losing side's cards or releases them back
// to their owners. A timeout or draw spends nothing.
func (e *Engine) closeOutCards(a *attack, side int, spend bool) {
	sub := a.submissions[side]
	if sub == nil {
		return
	}
	for _, id := range sub.tokenIDs {
		var err error
		if spend {
			err = e.cards.Spend(id)
		} else {
			err = e.cards.Release(id)
		}
		if err != nil {
			e.logger.Warn("close out card failed",
				zap.Uint64("attack_id", a.id),
				zap.Uint64("token_id", id),
				zap.Bool("spend", spend),
				zap.Error(err),
			)
		}
	}
}
