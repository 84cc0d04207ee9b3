package engine

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine/deck"
	"github.com/plunderhq/plunder-server/internal/poker"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRand pops scripted draws first, then falls back to a counter so
// unscripted draws stay deterministic.
type fakeRand struct {
	scripted []uint64
	counter  uint64
}

func (r *fakeRand) Draw(bound uint64) uint64 {
	var v uint64
	if len(r.scripted) > 0 {
		v = r.scripted[0]
		r.scripted = r.scripted[1:]
	} else {
		v = r.counter
		r.counter++
	}
	if bound == 0 {
		return 0
	}
	return v % bound
}

// evalResult is one scripted evaluator answer.
type evalResult struct {
	category poker.Category
	rank     int
}

// scriptedEvaluator pops answers in evaluation order: attacker then
// defender, round by round. With no script it ranks hands by a pure
// function of the card values, which keeps re-evaluation reproducible.
// Setting errOn makes the n-th Evaluate call (1-based) fail.
type scriptedEvaluator struct {
	script []evalResult
	errOn  int
	calls  int
}

func (e *scriptedEvaluator) Evaluate(values []deck.Value) (poker.Category, int, error) {
	e.calls++
	if e.errOn != 0 && e.calls == e.errOn {
		return poker.CategoryUnknown, 0, fmt.Errorf("evaluation failed")
	}
	if len(values) < 5 || len(values) > 7 {
		return poker.CategoryUnknown, 0, fmt.Errorf("combination size %d outside [5, 7]", len(values))
	}
	if len(e.script) > 0 {
		r := e.script[0]
		e.script = e.script[1:]
		return r.category, r.rank, nil
	}
	sum := 0
	for _, v := range values {
		sum += int(v)
	}
	return poker.CategoryHighCard, 1 + sum%poker.RankCeiling, nil
}

type fakeCard struct {
	owner      string
	power      uint64
	value      deck.Value
	joker      bool
	inUseBy    uint64
	spent      bool
	experience uint64
}

// fakeCards is an in-memory card ledger. failMark and failRelease name
// token ids whose MarkInUse or Release calls fail.
type fakeCards struct {
	cards       map[uint64]*fakeCard
	nextID      uint64
	failMark    uint64
	failRelease uint64
}

func newFakeCards() *fakeCards {
	return &fakeCards{cards: make(map[uint64]*fakeCard)}
}

func (f *fakeCards) mint(owner string, power uint64, value deck.Value, joker bool) uint64 {
	f.nextID++
	f.cards[f.nextID] = &fakeCard{owner: owner, power: power, value: value, joker: joker}
	return f.nextID
}

func (f *fakeCards) Info(id uint64) (CardInfo, error) {
	c, ok := f.cards[id]
	if !ok {
		return CardInfo{}, fmt.Errorf("card %d not found", id)
	}
	return CardInfo{
		ID:         id,
		Owner:      c.owner,
		Power:      c.power,
		Value:      c.value,
		Joker:      c.joker,
		InUse:      c.inUseBy != 0,
		Spent:      c.spent,
		Experience: c.experience,
	}, nil
}

func (f *fakeCards) MarkInUse(id, attackID uint64) error {
	if id == f.failMark {
		return fmt.Errorf("card %d mark failed", id)
	}
	c, ok := f.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	if c.spent || c.inUseBy != 0 {
		return fmt.Errorf("card %d unavailable", id)
	}
	c.inUseBy = attackID
	return nil
}

func (f *fakeCards) Release(id uint64) error {
	if id == f.failRelease {
		return fmt.Errorf("card %d release failed", id)
	}
	c, ok := f.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	c.inUseBy = 0
	return nil
}

func (f *fakeCards) Spend(id uint64) error {
	c, ok := f.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	c.spent = true
	c.inUseBy = 0
	return nil
}

func (f *fakeCards) Transfer(id uint64, to string) error {
	c, ok := f.cards[id]
	if !ok {
		return fmt.Errorf("card %d not found", id)
	}
	c.owner = to
	return nil
}

func (f *fakeCards) GrantExperienceBatch(ids []uint64, amount uint64) error {
	for _, id := range ids {
		c, ok := f.cards[id]
		if !ok {
			return fmt.Errorf("card %d not found", id)
		}
		c.experience += amount
	}
	return nil
}

type fakePlayers struct {
	outgoing    map[string][]uint64
	incoming    map[string]uint64
	points      map[string]uint64
	experience  map[string]uint64
	bogo        map[string]uint64
	checkpoints map[string]int
	defended    map[string]time.Time
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{
		outgoing:    make(map[string][]uint64),
		incoming:    make(map[string]uint64),
		points:      make(map[string]uint64),
		experience:  make(map[string]uint64),
		bogo:        make(map[string]uint64),
		checkpoints: make(map[string]int),
		defended:    make(map[string]time.Time),
	}
}

func (f *fakePlayers) Checkpoint(account string) error {
	f.checkpoints[account]++
	return nil
}

func (f *fakePlayers) AddPoints(account string, points uint64) error {
	f.points[account] += points
	return nil
}

func (f *fakePlayers) GrantExperience(account string, xp uint64) error {
	f.experience[account] += xp
	return nil
}

func (f *fakePlayers) IncrementBogo(account string, n uint64) error {
	f.bogo[account] += n
	return nil
}

func (f *fakePlayers) OutgoingCount(account string) int {
	return len(f.outgoing[account])
}

func (f *fakePlayers) HasIncoming(account string) bool {
	return f.incoming[account] != 0
}

func (f *fakePlayers) TrackAttack(attacker, defender string, attackID uint64) error {
	if f.incoming[defender] != 0 {
		return fmt.Errorf("defender %s already under attack", defender)
	}
	f.outgoing[attacker] = append(f.outgoing[attacker], attackID)
	f.incoming[defender] = attackID
	return nil
}

func (f *fakePlayers) ReleaseAttack(attacker, defender string, attackID uint64, defendedAt time.Time) error {
	out := f.outgoing[attacker]
	for i, id := range out {
		if id == attackID {
			f.outgoing[attacker] = append(out[:i], out[i+1:]...)
			break
		}
	}
	f.incoming[defender] = 0
	f.defended[defender] = defendedAt
	return nil
}

type shareMove struct {
	from, to string
	bps      uint64
}

type fakeRewards struct {
	moves []shareMove
	err   error
}

func (f *fakeRewards) MoveShare(from, to string, bps uint64) error {
	if f.err != nil {
		return f.err
	}
	f.moves = append(f.moves, shareMove{from: from, to: to, bps: bps})
	return nil
}

type fixedConfig struct {
	cfg config.GameConfig
}

func (f *fixedConfig) Active() config.GameConfig { return f.cfg }

// testHarness wires an engine over fakes with a scripted evaluator and
// random source.
type testHarness struct {
	t       *testing.T
	engine  *Engine
	cfg     config.GameConfig
	cards   *fakeCards
	players *fakePlayers
	rewards *fakeRewards
	rng     *fakeRand
	eval    *scriptedEvaluator
	clock   *fakeClock

	observations []Observation
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		t:       t,
		cfg:     config.DefaultGameConfig(),
		cards:   newFakeCards(),
		players: newFakePlayers(),
		rewards: &fakeRewards{},
		rng:     &fakeRand{},
		eval:    &scriptedEvaluator{},
		clock:   &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)},
	}
	h.engine = New(
		&fixedConfig{cfg: h.cfg},
		h.cards,
		h.players,
		h.rewards,
		h.rng,
		h.eval,
		zap.NewNop(),
		WithClock(h.clock.Now),
	)
	h.engine.Observations().Subscribe(func(obs Observation) {
		h.observations = append(h.observations, obs)
	})
	return h
}

// mintDeck mints n regular cards for the owner with distinct values
// starting at first, splitting total power evenly.
func (h *testHarness) mintDeck(owner string, n int, totalPower uint64, first deck.Value) []uint64 {
	h.t.Helper()
	ids := make([]uint64, n)
	for i := range ids {
		power := totalPower / uint64(n)
		if i == 0 {
			power += totalPower % uint64(n)
		}
		ids[i] = h.cards.mint(owner, power, first+deck.Value(i), false)
	}
	return ids
}

// newFloppedAttack creates and flops an attack, returning its id.
func (h *testHarness) newFloppedAttack(attacker, defender string) uint64 {
	h.t.Helper()
	id, err := h.engine.CreateAttack(attacker, defender)
	if err != nil {
		h.t.Fatalf("CreateAttack: %v", err)
	}
	if err := h.engine.Flop(id); err != nil {
		h.t.Fatalf("Flop: %v", err)
	}
	return id
}

// newSubmittedAttack runs the lifecycle up to ShowingDown with both
// decks submitted. Powers split across five cards per side.
func (h *testHarness) newSubmittedAttack(attacker, defender string, attackerPower, defenderPower uint64) (uint64, []uint64, []uint64) {
	h.t.Helper()
	id := h.newFloppedAttack(attacker, defender)
	atkCards := h.mintDeck(attacker, 5, attackerPower, 1)
	defCards := h.mintDeck(defender, 5, defenderPower, 21)
	if err := h.engine.Submit(id, attacker, atkCards, nil); err != nil {
		h.t.Fatalf("attacker Submit: %v", err)
	}
	if err := h.engine.Submit(id, defender, defCards, nil); err != nil {
		h.t.Fatalf("defender Submit: %v", err)
	}
	return id, atkCards, defCards
}

// scriptRounds scripts the evaluator with alternating attacker and
// defender ranks for each round.
func (h *testHarness) scriptRounds(pairs ...[2]int) {
	for _, p := range pairs {
		h.eval.script = append(h.eval.script,
			evalResult{category: poker.CategoryPair, rank: p[0]},
			evalResult{category: poker.CategoryHighCard, rank: p[1]},
		)
	}
}

// observationsOf filters captured observations by type.
func (h *testHarness) observationsOf(t ObservationType) []Observation {
	var out []Observation
	for _, obs := range h.observations {
		if obs.Type == t {
			out = append(out, obs)
		}
	}
	return out
}
