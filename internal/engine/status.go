package engine

// AttackStatus represents the phase of an attack. Transitions are
// strictly forward; Finalized is terminal.
type AttackStatus int

const (
	StatusFlopping AttackStatus = iota
	StatusWaitingForAttack
	StatusWaitingForDefense
	StatusShowingDown
	StatusFinalized
)

func (s AttackStatus) String() string {
	switch s {
	case StatusFlopping:
		return "FLOPPING"
	case StatusWaitingForAttack:
		return "WAITING_FOR_ATTACK"
	case StatusWaitingForDefense:
		return "WAITING_FOR_DEFENSE"
	case StatusShowingDown:
		return "SHOWING_DOWN"
	case StatusFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// Result is the aggregate outcome of an attack. It stays ResultNone
// until the showdown completes; an attack finalized by timeout keeps
// ResultNone.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFail
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultNone:
		return "NONE"
	case ResultSuccess:
		return "SUCCESS"
	case ResultFail:
		return "FAIL"
	case ResultDraw:
		return "DRAW"
	default:
		return "UNKNOWN"
	}
}
