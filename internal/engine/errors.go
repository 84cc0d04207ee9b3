package engine

import "errors"

// Engine errors are validation or state-precondition failures. A failed
// call leaves all shared state exactly as it was; callers correct the
// input or wait for the required condition before retrying.
var (
	// ErrAttackNotFound reports an unknown attack identifier.
	ErrAttackNotFound = errors.New("attack not found")

	// ErrInvalidAddress reports a missing defender or an attacker
	// targeting itself.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAttackStatus reports an operation applied in the wrong
	// phase.
	ErrInvalidAttackStatus = errors.New("invalid attack status")

	// ErrForbidden reports a caller that is not the expected
	// current-phase participant.
	ErrForbidden = errors.New("forbidden")

	// ErrAttackTimeover reports an attacker submission past the attack
	// deadline.
	ErrAttackTimeover = errors.New("attack period is over")

	// ErrDefenseTimeover reports a defender submission past the defense
	// deadline.
	ErrDefenseTimeover = errors.New("defense period is over")

	// ErrWaitingForAttack reports a finalize attempt before the attack
	// deadline has elapsed.
	ErrWaitingForAttack = errors.New("still waiting for attack")

	// ErrWaitingForDefense reports a finalize attempt before the
	// defense deadline has elapsed.
	ErrWaitingForDefense = errors.New("still waiting for defense")

	// ErrInvalidNumberOfCards reports a submission outside the
	// configured card count bounds.
	ErrInvalidNumberOfCards = errors.New("invalid number of cards")

	// ErrInvalidNumberOfJokers reports more joker values than the
	// configuration allows, or values left over after resolution.
	ErrInvalidNumberOfJokers = errors.New("invalid number of jokers")

	// ErrInvalidJokerCard reports a joker value outside the legal card
	// value range, or a joker card with no value supplied.
	ErrInvalidJokerCard = errors.New("invalid joker card")

	// ErrDuplicateCard reports repeated token identifiers in one
	// submission.
	ErrDuplicateCard = errors.New("duplicate card")

	// ErrDuplicateCardValue reports resolved card values that are not
	// pairwise distinct.
	ErrDuplicateCardValue = errors.New("duplicate card value")

	// ErrCardUnavailable reports a card the caller does not own, or one
	// already committed to another attack or spent.
	ErrCardUnavailable = errors.New("card unavailable")

	// ErrDefenderUnderAttack reports a defender that already has a
	// pending incoming attack.
	ErrDefenderUnderAttack = errors.New("defender already under attack")

	// ErrTooManyAttacks reports an attacker at the configured bound of
	// outgoing attacks.
	ErrTooManyAttacks = errors.New("too many outgoing attacks")
)
