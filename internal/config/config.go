package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Random   RandomConfig   `mapstructure:"random"`
	Game     GameSettings   `mapstructure:"game"`
}

// ServerConfig holds the gateway listener settings.
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig holds the HTTP/websocket gateway settings.
type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the attack-archive database settings.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	HealthCheckFreq time.Duration `mapstructure:"health_check_freq"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RandomConfig holds the committed draw seed. An empty seed tells the
// server to generate one at startup.
type RandomConfig struct {
	Seed string `mapstructure:"seed"`
}

// GameSettings holds the versioned rule parameter sets and names the
// active version. Version keys are strings because viper stringifies
// map keys; Parsed converts them.
type GameSettings struct {
	ActiveVersion int                   `mapstructure:"active_version"`
	Versions      map[string]GameConfig `mapstructure:"versions"`
}

// Parsed returns the rule sets keyed by numeric version.
func (s GameSettings) Parsed() (map[int]GameConfig, error) {
	versions := make(map[int]GameConfig, len(s.Versions))
	for key, cfg := range s.Versions {
		v, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("game config version %q is not numeric", key)
		}
		cfg.Version = v
		versions[v] = cfg
	}
	return versions, nil
}

// Load reads the configuration file at path and applies environment
// overrides (PLUNDER_ prefix, dots replaced by underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("PLUNDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http.address", ":8080")
	v.SetDefault("server.http.read_timeout", 15*time.Second)
	v.SetDefault("server.http.write_timeout", 15*time.Second)
	v.SetDefault("server.http.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.health_check_freq", time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.active_version", 1)
}

func (c *Config) validate() error {
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database enabled but no url configured")
	}
	if len(c.Game.Versions) == 0 {
		// No explicit rule sets; run with the built-in defaults.
		c.Game.Versions = map[string]GameConfig{"1": DefaultGameConfig()}
		c.Game.ActiveVersion = 1
	}
	versions, err := c.Game.Parsed()
	if err != nil {
		return err
	}
	active, ok := versions[c.Game.ActiveVersion]
	if !ok {
		return fmt.Errorf("active game config version %d not defined", c.Game.ActiveVersion)
	}
	if err := active.Validate(); err != nil {
		return fmt.Errorf("game config version %d: %w", c.Game.ActiveVersion, err)
	}
	return nil
}
