package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plunderhq/plunder-server/internal/poker"
)

// ObservationType indicates the category of an engine observation.
type ObservationType string

const (
	ObservationAttackCreated         ObservationType = "ATTACK_CREATED"
	ObservationEvaluateHands         ObservationType = "EVALUATE_HANDS"
	ObservationDetermineAttackResult ObservationType = "DETERMINE_ATTACK_RESULT"
	ObservationAttackFinalized       ObservationType = "ATTACK_FINALIZED"
)

// Observation is a side-channel record emitted by the engine for
// external indexers. Observations are not required for the correctness
// of subsequent calls.
type Observation struct {
	ID        string
	Type      ObservationType
	AttackID  uint64
	Attacker  string
	Defender  string
	Timestamp time.Time

	// Round evaluation fields, set for EVALUATE_HANDS.
	Round            int
	AttackerCategory poker.Category
	DefenderCategory poker.Category
	AttackerRank     int
	DefenderRank     int

	// Result field, set for DETERMINE_ATTACK_RESULT and
	// ATTACK_FINALIZED.
	Result Result
}

// ObservationListener reacts to emitted observations. Listeners run
// synchronously inside the emitting operation and must not call back
// into the engine.
type ObservationListener func(Observation)

// ObservationBus is a synchronous publish/subscribe fan-out for engine
// observations.
type ObservationBus struct {
	mu         sync.RWMutex
	listeners  map[int]ObservationListener
	nextHandle int
}

// NewObservationBus constructs an empty bus.
func NewObservationBus() *ObservationBus {
	return &ObservationBus{listeners: make(map[int]ObservationListener)}
}

// Subscribe registers a listener and returns its handle.
func (b *ObservationBus) Subscribe(listener ObservationListener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (b *ObservationBus) Unsubscribe(handle int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, handle)
}

// Publish delivers the observation to every listener.
func (b *ObservationBus) Publish(obs Observation) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		listener(obs)
	}
}

func newObservation(t ObservationType, a *attack, at time.Time) Observation {
	return Observation{
		ID:        uuid.NewString(),
		Type:      t,
		AttackID:  a.id,
		Attacker:  a.attacker,
		Defender:  a.defender,
		Timestamp: at,
	}
}
