package config

import (
	"fmt"
	"sync"
	"time"
)

// GameConfig is one versioned set of combat rule parameters. The engine
// only ever reads the active version; old versions stay addressable so
// attacks created under them can be inspected.
type GameConfig struct {
	Version int `mapstructure:"version"`

	// Submission bounds.
	MinCards  int `mapstructure:"min_cards"`
	MaxCards  int `mapstructure:"max_cards"`
	MaxJokers int `mapstructure:"max_jokers"`

	// Community card schedule: FlopSize values per round are revealed at
	// the flop, the remaining CommunityCards-FlopSize at showdown.
	Rounds         int `mapstructure:"rounds"`
	FlopSize       int `mapstructure:"flop_size"`
	CommunityCards int `mapstructure:"community_cards"`

	// Timing windows measured from the attack start timestamp.
	AttackPeriod  time.Duration `mapstructure:"attack_period"`
	DefensePeriod time.Duration `mapstructure:"defense_period"`

	// Booty percentage bounds in basis points (1/100 of a percent).
	BootyBpsMin uint64 `mapstructure:"booty_bps_min"`
	BootyBpsMax uint64 `mapstructure:"booty_bps_max"`

	// Player bookkeeping bounds.
	MaxAttacks int    `mapstructure:"max_attacks"`
	BogoMax    uint64 `mapstructure:"bogo_max"`
}

// DefaultGameConfig returns the rule set the server runs with when no
// versions are configured.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Version:        1,
		MinCards:       3,
		MaxCards:       5,
		MaxJokers:      2,
		Rounds:         5,
		FlopSize:       1,
		CommunityCards: 2,
		AttackPeriod:   10 * time.Minute,
		DefensePeriod:  10 * time.Minute,
		BootyBpsMin:    1000,
		BootyBpsMax:    5000,
		MaxAttacks:     3,
		BogoMax:        10,
	}
}

// Validate checks the internal consistency of a rule set.
func (g GameConfig) Validate() error {
	if g.MinCards < 1 || g.MaxCards < g.MinCards {
		return fmt.Errorf("invalid card bounds [%d, %d]", g.MinCards, g.MaxCards)
	}
	if g.MaxJokers < 0 || g.MaxJokers > g.MaxCards {
		return fmt.Errorf("invalid max jokers %d", g.MaxJokers)
	}
	if g.Rounds < 1 {
		return fmt.Errorf("invalid round count %d", g.Rounds)
	}
	if g.FlopSize < 0 || g.CommunityCards < g.FlopSize {
		return fmt.Errorf("invalid community schedule flop=%d total=%d", g.FlopSize, g.CommunityCards)
	}
	if min, max := g.MinCards+g.CommunityCards, g.MaxCards+g.CommunityCards; min < 5 || max > 7 {
		return fmt.Errorf("hand sizes [%d, %d] outside evaluator range [5, 7]", min, max)
	}
	if g.AttackPeriod <= 0 || g.DefensePeriod <= 0 {
		return fmt.Errorf("timing windows must be positive")
	}
	if g.BootyBpsMin > g.BootyBpsMax || g.BootyBpsMax > 10000 {
		return fmt.Errorf("invalid booty bounds [%d, %d] bps", g.BootyBpsMin, g.BootyBpsMax)
	}
	if g.MaxAttacks < 1 {
		return fmt.Errorf("invalid max attacks %d", g.MaxAttacks)
	}
	return nil
}

// GameConfigProvider serves versioned rule sets. Read-only to the
// engine; new versions are registered by the operator.
type GameConfigProvider struct {
	mu       sync.RWMutex
	versions map[int]GameConfig
	active   int
}

// NewGameConfigProvider builds a provider from the loaded settings.
// Settings are assumed validated by Load.
func NewGameConfigProvider(s GameSettings) (*GameConfigProvider, error) {
	versions, err := s.Parsed()
	if err != nil {
		return nil, err
	}
	return &GameConfigProvider{versions: versions, active: s.ActiveVersion}, nil
}

// Active returns the currently active rule set.
func (p *GameConfigProvider) Active() GameConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.versions[p.active]
}

// Version returns a specific rule set by version number.
func (p *GameConfigProvider) Version(v int) (GameConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.versions[v]
	return cfg, ok
}

// Register adds a new rule set and makes it active. The previous
// version stays addressable.
func (p *GameConfigProvider) Register(cfg GameConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.versions[cfg.Version]; exists {
		return fmt.Errorf("game config version %d already registered", cfg.Version)
	}
	p.versions[cfg.Version] = cfg
	p.active = cfg.Version
	return nil
}
