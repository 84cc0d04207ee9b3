// Package poker ranks 5-to-7 card combinations for the combat engine.
// Scoring is delegated to github.com/paulhankin/poker; the library's
// higher-is-better score is mapped into the engine's convention where
// rank 1 is the strongest possible hand and RankCeiling the weakest.
package poker

import (
	"fmt"
	"sort"
	"sync"

	hand "github.com/paulhankin/poker"

	"github.com/plunderhq/plunder-server/internal/engine/deck"
)

// RankCeiling is the number of distinct five-card hand classes
// drawable from a standard deck; it doubles as the weakest possible
// rank.
const RankCeiling = 7462

// Evaluator ranks combinations of engine card values.
type Evaluator struct {
	scores []int16
}

// NewEvaluator returns the default evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{scores: handScores()}
}

var (
	scoreOnce  sync.Once
	scoreTable []int16
)

// handScores lists, ascending, every library score achievable by five
// distinct cards. The library shares one score scale with three-card
// and with-replacement evaluation, so the raw score is not a dense
// rank; position in this list is. The strongest class sits at the end
// and maps to rank 1, the weakest at the front maps to RankCeiling.
func handScores() []int16 {
	scoreOnce.Do(func() {
		scoreTable = make([]int16, 0, RankCeiling)
		for s := int16(0); s <= hand.ScoreMax; s++ {
			h, ok := hand.EvalToHand5(s)
			if !ok || fiveOfAKind(h) {
				continue
			}
			scoreTable = append(scoreTable, s)
		}
	})
	return scoreTable
}

// fiveOfAKind reports whether the example hand repeats a single rank
// five times. Such scores exist only under with-replacement evaluation
// and are unreachable from distinct cards.
func fiveOfAKind(h []hand.Card) bool {
	for _, c := range h[1:] {
		if c.Rank() != h[0].Rank() {
			return false
		}
	}
	return true
}

// rankOf converts a library score into the engine rank in
// [1, RankCeiling].
func (e *Evaluator) rankOf(score int16) int {
	i := sort.Search(len(e.scores), func(i int) bool {
		return e.scores[i] >= score
	})
	return len(e.scores) - i
}

// Evaluate ranks a combination of 5 to 7 card values. It returns the
// category and rank of the best five-card hand, lower rank meaning a
// stronger hand.
func (e *Evaluator) Evaluate(values []deck.Value) (Category, int, error) {
	if len(values) < 5 || len(values) > 7 {
		return CategoryUnknown, 0, fmt.Errorf("combination size %d outside [5, 7]", len(values))
	}

	cards := make([]hand.Card, len(values))
	for i, v := range values {
		if !deck.Valid(v) {
			return CategoryUnknown, 0, fmt.Errorf("invalid card value %d", v)
		}
		c, err := hand.MakeCard(hand.Suit(deck.Suit(v)), hand.Rank(deck.Rank(v)))
		if err != nil {
			return CategoryUnknown, 0, fmt.Errorf("card value %d: %w", v, err)
		}
		cards[i] = c
	}

	best, bestScore := bestFive(values, cards)
	return classify(best), e.rankOf(bestScore), nil
}

// bestFive scores every five-card subset and returns the winning
// subset's values with its score.
func bestFive(values []deck.Value, cards []hand.Card) ([]deck.Value, int16) {
	if len(cards) == 5 {
		var five [5]hand.Card
		copy(five[:], cards)
		return values, hand.Eval5(&five)
	}

	var (
		n          = len(cards)
		bestScore  int16 = -1
		bestValues []deck.Value
		subset     [5]hand.Card
		subsetVals = make([]deck.Value, 5)
		idx        = make([]int, 5)
	)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			for i, j := range idx {
				subset[i] = cards[j]
				subsetVals[i] = values[j]
			}
			if score := hand.Eval5(&subset); score > bestScore {
				bestScore = score
				bestValues = append(bestValues[:0], subsetVals...)
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			idx[depth] = i
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return bestValues, bestScore
}

// classify names the hand class of exactly five card values.
func classify(values []deck.Value) Category {
	var rankCount [14]int
	flush := true
	suit := deck.Suit(values[0])
	for _, v := range values {
		rankCount[deck.Rank(v)]++
		if deck.Suit(v) != suit {
			flush = false
		}
	}

	straight := isStraight(rankCount)
	switch {
	case straight && flush:
		return CategoryStraightFlush
	case hasCount(rankCount, 4):
		return CategoryFourOfAKind
	case hasCount(rankCount, 3) && hasCount(rankCount, 2):
		return CategoryFullHouse
	case flush:
		return CategoryFlush
	case straight:
		return CategoryStraight
	case hasCount(rankCount, 3):
		return CategoryThreeOfAKind
	case pairCount(rankCount) == 2:
		return CategoryTwoPair
	case pairCount(rankCount) == 1:
		return CategoryPair
	default:
		return CategoryHighCard
	}
}

func hasCount(rankCount [14]int, n int) bool {
	for _, c := range rankCount {
		if c == n {
			return true
		}
	}
	return false
}

func pairCount(rankCount [14]int) int {
	pairs := 0
	for _, c := range rankCount {
		if c == 2 {
			pairs++
		}
	}
	return pairs
}

// isStraight reports whether the rank counts form five consecutive
// ranks. The ace plays both low (A-2-3-4-5) and high (10-J-Q-K-A).
func isStraight(rankCount [14]int) bool {
	for _, c := range rankCount {
		if c > 1 {
			return false
		}
	}
	run := 0
	for r := 1; r <= 13; r++ {
		if rankCount[r] > 0 {
			run++
			if run == 5 {
				return true
			}
		} else {
			run = 0
		}
	}
	// Ace-high straight: 10-J-Q-K plus the ace counted at rank 1.
	return run == 4 && rankCount[10] > 0 && rankCount[1] > 0
}
