package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize_NotFound(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.engine.Finalize(42), ErrAttackNotFound)
}

func TestFinalize_BeforeAttackDeadline(t *testing.T) {
	h := newHarness(t)
	id := h.newFloppedAttack("alice", "bob")

	require.ErrorIs(t, h.engine.Finalize(id), ErrWaitingForAttack)

	h.clock.Advance(h.cfg.AttackPeriod - time.Second)
	require.ErrorIs(t, h.engine.Finalize(id), ErrWaitingForAttack)
}

func TestFinalize_AttackTimeout(t *testing.T) {
	h := newHarness(t)
	atkCards := h.mintDeck("alice", 5, 500, 1)
	id := h.newFloppedAttack("alice", "bob")

	h.clock.Advance(h.cfg.AttackPeriod + time.Second)

	// Past the deadline the attacker can no longer submit, and anyone
	// may force the attack closed.
	require.ErrorIs(t, h.engine.Submit(id, "alice", atkCards, nil), ErrAttackTimeover)
	require.NoError(t, h.engine.Finalize(id))

	snap, err := h.engine.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, snap.Status)
	assert.Equal(t, ResultNone, snap.Result)

	// The pairing is released on both sides.
	assert.Equal(t, 0, h.players.OutgoingCount("alice"))
	assert.False(t, h.players.HasIncoming("bob"))
}

func TestFinalize_DefenseTimeout(t *testing.T) {
	h := newHarness(t)
	atkCards := h.mintDeck("alice", 5, 500, 1)
	defCards := h.mintDeck("bob", 5, 300, 21)
	id := h.newFloppedAttack("alice", "bob")
	require.NoError(t, h.engine.Submit(id, "alice", atkCards, nil))

	require.ErrorIs(t, h.engine.Finalize(id), ErrWaitingForDefense)

	h.clock.Advance(h.cfg.DefensePeriod + time.Second)
	require.ErrorIs(t, h.engine.Submit(id, "bob", defCards, nil), ErrDefenseTimeover)
	require.NoError(t, h.engine.Finalize(id))

	snap, err := h.engine.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, snap.Status)
	assert.Equal(t, ResultNone, snap.Result)

	// The attacker's committed cards come back untouched.
	for _, tokenID := range atkCards {
		info, err := h.cards.Info(tokenID)
		require.NoError(t, err)
		assert.False(t, info.InUse)
		assert.False(t, info.Spent)
		assert.Equal(t, "alice", info.Owner)
	}
}

func TestFinalize_ShowingDownNeedsNoDeadline(t *testing.T) {
	h := newHarness(t)
	id, atkCards, defCards := h.newSubmittedAttack("alice", "bob", 500, 300)

	require.NoError(t, h.engine.Finalize(id))

	snap, err := h.engine.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, snap.Status)
	assert.Equal(t, ResultNone, snap.Result)

	// Without a showdown nothing is spent or moved.
	assert.Empty(t, h.rewards.moves)
	for _, tokenID := range append(append([]uint64(nil), atkCards...), defCards...) {
		info, err := h.cards.Info(tokenID)
		require.NoError(t, err)
		assert.False(t, info.Spent)
		assert.False(t, info.InUse)
	}
}

func TestFinalize_WrongStatus(t *testing.T) {
	h := newHarness(t)
	id, err := h.engine.CreateAttack("alice", "bob")
	require.NoError(t, err)

	// Still flopping.
	require.ErrorIs(t, h.engine.Finalize(id), ErrInvalidAttackStatus)

	require.NoError(t, h.engine.Flop(id))
	h.clock.Advance(h.cfg.AttackPeriod + time.Second)
	require.NoError(t, h.engine.Finalize(id))

	// Already finalized.
	require.ErrorIs(t, h.engine.Finalize(id), ErrInvalidAttackStatus)
}

func TestFinalize_FreesDefenderForNewAttacks(t *testing.T) {
	h := newHarness(t)
	id := h.newFloppedAttack("alice", "bob")

	_, err := h.engine.CreateAttack("carol", "bob")
	require.ErrorIs(t, err, ErrDefenderUnderAttack)

	h.clock.Advance(h.cfg.AttackPeriod + time.Second)
	require.NoError(t, h.engine.Finalize(id))

	_, err = h.engine.CreateAttack("carol", "bob")
	require.NoError(t, err)
}

func TestFinalize_EmitsObservation(t *testing.T) {
	h := newHarness(t)
	id := h.newFloppedAttack("alice", "bob")
	h.clock.Advance(h.cfg.AttackPeriod + time.Second)
	require.NoError(t, h.engine.Finalize(id))

	finalized := h.observationsOf(ObservationAttackFinalized)
	require.Len(t, finalized, 1)
	assert.Equal(t, id, finalized[0].AttackID)
	assert.Equal(t, ResultNone, finalized[0].Result)
	assert.Equal(t, "alice", finalized[0].Attacker)
	assert.Equal(t, "bob", finalized[0].Defender)
}
