package poker

// Category is the hand class reported alongside a numeric rank.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryHighCard
	CategoryPair
	CategoryTwoPair
	CategoryThreeOfAKind
	CategoryStraight
	CategoryFlush
	CategoryFullHouse
	CategoryFourOfAKind
	CategoryStraightFlush
)

func (c Category) String() string {
	switch c {
	case CategoryHighCard:
		return "HIGH_CARD"
	case CategoryPair:
		return "PAIR"
	case CategoryTwoPair:
		return "TWO_PAIR"
	case CategoryThreeOfAKind:
		return "THREE_OF_A_KIND"
	case CategoryStraight:
		return "STRAIGHT"
	case CategoryFlush:
		return "FLUSH"
	case CategoryFullHouse:
		return "FULL_HOUSE"
	case CategoryFourOfAKind:
		return "FOUR_OF_A_KIND"
	case CategoryStraightFlush:
		return "STRAIGHT_FLUSH"
	default:
		return "UNKNOWN"
	}
}
