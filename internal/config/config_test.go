package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.HTTP.Address)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.Database.Enabled)

	// With no versions configured the built-in rule set is installed.
	require.Equal(t, 1, cfg.Game.ActiveVersion)
	active := cfg.Game.Versions["1"]
	require.Equal(t, 5, active.Rounds)
	require.Equal(t, 10*time.Minute, active.AttackPeriod)
}

func TestLoad_ExplicitGameVersion(t *testing.T) {
	path := writeConfig(t, `
game:
  active_version: 2
  versions:
    2:
      min_cards: 5
      max_cards: 5
      max_jokers: 1
      rounds: 3
      flop_size: 1
      community_cards: 2
      attack_period: 5m
      defense_period: 5m
      booty_bps_min: 500
      booty_bps_max: 2500
      max_attacks: 2
      bogo_max: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Game.ActiveVersion)
	require.Equal(t, 3, cfg.Game.Versions["2"].Rounds)
	require.Equal(t, uint64(2500), cfg.Game.Versions["2"].BootyBpsMax)
}

func TestLoad_MissingActiveVersion(t *testing.T) {
	path := writeConfig(t, `
game:
  active_version: 9
  versions:
    1:
      min_cards: 3
      max_cards: 5
      rounds: 5
      flop_size: 1
      community_cards: 2
      attack_period: 10m
      defense_period: 10m
      booty_bps_min: 1000
      booty_bps_max: 5000
      max_attacks: 3
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_DatabaseEnabledNeedsURL(t *testing.T) {
	path := writeConfig(t, "database:\n  enabled: true\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestGameConfigValidate_HandSizeBounds(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.MaxCards = 7 // 7 + 2 community exceeds the evaluator ceiling
	require.Error(t, cfg.Validate())

	cfg = DefaultGameConfig()
	cfg.MinCards = 2 // 2 + 2 community is below a valid poker hand
	require.Error(t, cfg.Validate())
}

func TestGameConfigProvider_RegisterAndActivate(t *testing.T) {
	p, err := NewGameConfigProvider(GameSettings{
		ActiveVersion: 1,
		Versions:      map[string]GameConfig{"1": DefaultGameConfig()},
	})
	require.NoError(t, err)
	require.Equal(t, 1, p.Active().Version)

	next := DefaultGameConfig()
	next.Version = 2
	next.Rounds = 3
	require.NoError(t, p.Register(next))
	require.Equal(t, 2, p.Active().Version)
	require.Equal(t, 3, p.Active().Rounds)

	// Old version remains addressable.
	old, ok := p.Version(1)
	require.True(t, ok)
	require.Equal(t, 5, old.Rounds)

	// Re-registering an existing version is rejected.
	require.Error(t, p.Register(next))
}
