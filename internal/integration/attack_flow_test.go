package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
	"github.com/plunderhq/plunder-server/internal/ledger"
	"github.com/plunderhq/plunder-server/internal/poker"
	"github.com/plunderhq/plunder-server/internal/random"
)

// world wires real ledgers, the committed random source and the real
// hand evaluator under one engine.
type world struct {
	engine       *engine.Engine
	cards        *ledger.CardLedger
	players      *ledger.PlayerLedger
	rewards      *ledger.RewardLedger
	observations []engine.Observation
}

type staticRules struct {
	cfg config.GameConfig
}

func (s *staticRules) Active() config.GameConfig { return s.cfg }

func newWorld(t *testing.T, seed string) *world {
	t.Helper()
	logger := zap.NewNop()

	rng, err := random.NewSeedSource([]byte(seed))
	require.NoError(t, err)

	w := &world{
		cards:   ledger.NewCardLedger(logger),
		players: ledger.NewPlayerLedger(logger),
		rewards: ledger.NewRewardLedger(logger),
	}
	w.engine = engine.New(
		&staticRules{cfg: config.DefaultGameConfig()},
		w.cards,
		w.players,
		w.rewards,
		rng,
		poker.NewEvaluator(),
		logger,
	)
	w.engine.Observations().Subscribe(func(obs engine.Observation) {
		w.observations = append(w.observations, obs)
	})
	return w
}

func (w *world) mintDeck(t *testing.T, owner string, powerEach uint64, values ...deck.Value) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, len(values))
	for _, v := range values {
		id, err := w.cards.Mint(owner, powerEach, v, false, 10)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func (w *world) countOf(obsType engine.ObservationType) int {
	n := 0
	for _, obs := range w.observations {
		if obs.Type == obsType {
			n++
		}
	}
	return n
}

func TestFullAttackResolution(t *testing.T) {
	w := newWorld(t, "integration-seed-1")
	cfg := config.DefaultGameConfig()

	atkCards := w.mintDeck(t, "alice", 100, 1, 2, 3, 4, 5)
	defCards := w.mintDeck(t, "bob", 60, 21, 22, 23, 24, 25)
	w.rewards.Credit("alice", 100_000)
	w.rewards.Credit("bob", 100_000)

	id, err := w.engine.CreateAttack("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, w.engine.Flop(id))
	require.NoError(t, w.engine.Submit(id, "alice", atkCards, nil))
	require.NoError(t, w.engine.Submit(id, "bob", defCards, nil))
	require.NoError(t, w.engine.ShowDown(id))

	snap, err := w.engine.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFinalized, snap.Status)
	assert.Contains(t, []engine.Result{engine.ResultSuccess, engine.ResultFail, engine.ResultDraw}, snap.Result)

	// Community schedule fully revealed.
	require.Len(t, snap.Community, cfg.Rounds)
	for _, burst := range snap.Community {
		assert.Len(t, burst, cfg.CommunityCards)
	}

	// One evaluation per round, one verdict, one finalization.
	assert.Equal(t, cfg.Rounds, w.countOf(engine.ObservationEvaluateHands))
	assert.Equal(t, 1, w.countOf(engine.ObservationDetermineAttackResult))
	assert.Equal(t, 1, w.countOf(engine.ObservationAttackFinalized))

	// Reward shares always conserve.
	assert.Equal(t, uint64(200_000), w.rewards.Total())

	// Card state is consistent with the result: the losing side's cards
	// are spent, the rest are free again.
	for _, tokenID := range atkCards {
		info, err := w.cards.Info(tokenID)
		require.NoError(t, err)
		assert.False(t, info.InUse)
		assert.Equal(t, snap.Result == engine.ResultFail, info.Spent)
	}
	for _, tokenID := range defCards {
		info, err := w.cards.Info(tokenID)
		require.NoError(t, err)
		assert.False(t, info.InUse)
		assert.Equal(t, snap.Result == engine.ResultSuccess, info.Spent)
	}

	// Both players are free to fight again.
	assert.Equal(t, 0, w.players.OutgoingCount("alice"))
	assert.False(t, w.players.HasIncoming("bob"))
}

func TestIdenticalSeedsProduceIdenticalOutcomes(t *testing.T) {
	run := func() (engine.Result, [][]deck.Value) {
		w := newWorld(t, "replay-seed")
		atkCards := w.mintDeck(t, "alice", 100, 10, 11, 12, 13, 44)
		defCards := w.mintDeck(t, "bob", 100, 30, 31, 32, 33, 50)

		id, err := w.engine.CreateAttack("alice", "bob")
		require.NoError(t, err)
		require.NoError(t, w.engine.Flop(id))
		require.NoError(t, w.engine.Submit(id, "alice", atkCards, nil))
		require.NoError(t, w.engine.Submit(id, "bob", defCards, nil))
		require.NoError(t, w.engine.ShowDown(id))

		snap, err := w.engine.Snapshot(id)
		require.NoError(t, err)
		return snap.Result, snap.Community
	}

	firstResult, firstCommunity := run()
	secondResult, secondCommunity := run()

	assert.Equal(t, firstResult, secondResult)
	assert.Equal(t, firstCommunity, secondCommunity)
}

func TestJokerSubmissionEndToEnd(t *testing.T) {
	w := newWorld(t, "joker-seed")

	atkCards := w.mintDeck(t, "alice", 100, 1, 2, 3, 4)
	jokerID, err := w.cards.Mint("alice", 100, 0, true, 10)
	require.NoError(t, err)
	atkCards = append(atkCards, jokerID)
	defCards := w.mintDeck(t, "bob", 100, 21, 22, 23, 24, 25)

	id, err := w.engine.CreateAttack("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, w.engine.Flop(id))

	// The joker plays as the ace of spades.
	require.NoError(t, w.engine.Submit(id, "alice", atkCards, []deck.Value{40}))
	require.NoError(t, w.engine.Submit(id, "bob", defCards, nil))

	snap, err := w.engine.Snapshot(id)
	require.NoError(t, err)
	attackerSub := snap.Submissions[0]
	require.NotNil(t, attackerSub)
	assert.Contains(t, attackerSub.Values, deck.Value(40))

	require.NoError(t, w.engine.ShowDown(id))
}

func TestConcurrentAttacksOnDistinctDefenders(t *testing.T) {
	w := newWorld(t, "parallel-seed")
	cfg := config.DefaultGameConfig()

	defenders := []string{"bob", "carol", "dave"}
	ids := make([]uint64, 0, len(defenders))
	for _, defender := range defenders {
		id, err := w.engine.CreateAttack("alice", defender)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, cfg.MaxAttacks, w.players.OutgoingCount("alice"))

	_, err := w.engine.CreateAttack("alice", "erin")
	require.ErrorIs(t, err, engine.ErrTooManyAttacks)

	// Separate decks per attack; finishing one frees an attack slot.
	atkCards := w.mintDeck(t, "alice", 100, 1, 2, 3, 4, 5)
	defCards := w.mintDeck(t, "bob", 100, 21, 22, 23, 24, 25)
	require.NoError(t, w.engine.Flop(ids[0]))
	require.NoError(t, w.engine.Submit(ids[0], "alice", atkCards, nil))
	require.NoError(t, w.engine.Submit(ids[0], "bob", defCards, nil))
	require.NoError(t, w.engine.ShowDown(ids[0]))

	assert.Equal(t, cfg.MaxAttacks-1, w.players.OutgoingCount("alice"))
	_, err = w.engine.CreateAttack("alice", "erin")
	require.NoError(t, err)
}
