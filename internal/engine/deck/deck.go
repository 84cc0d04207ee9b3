// Package deck defines the card value space shared by submitted cards
// and community draws. Values run 1..52 with the suit order clubs,
// diamonds, hearts, spades; rank 1 is the ace.
package deck

// Value is a concrete playing-card value in [MinValue, MaxValue].
type Value uint8

const (
	MinValue Value = 1
	MaxValue Value = 52

	RanksPerSuit = 13
)

// Suit indices in value order.
const (
	Club = iota
	Diamond
	Heart
	Spade
)

// Valid reports whether v encodes a playing card.
func Valid(v Value) bool {
	return v >= MinValue && v <= MaxValue
}

// Rank returns the rank 1..13 of a value (1 = ace, 13 = king).
func Rank(v Value) uint8 {
	return uint8((v-1)%RanksPerSuit) + 1
}

// Suit returns the suit index 0..3 of a value.
func Suit(v Value) uint8 {
	return uint8((v - 1) / RanksPerSuit)
}

// FromRankSuit composes a value from rank 1..13 and suit 0..3.
func FromRankSuit(rank, suit uint8) Value {
	return Value(suit)*RanksPerSuit + Value(rank)
}

// Distinct reports whether all values in the slice are pairwise
// distinct.
func Distinct(values []Value) bool {
	seen := make(map[Value]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
