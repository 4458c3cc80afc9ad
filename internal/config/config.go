package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DUEL_SIM_SEED.
const EnvPrefix = "DUEL"

// Config is the full application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Sim    SimConfig    `mapstructure:"sim" yaml:"sim"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Audio  AudioConfig  `mapstructure:"audio" yaml:"audio"`
	Coach  CoachConfig  `mapstructure:"coach" yaml:"coach"`
}

// ColorConfig maps log levels to terminal colour names.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LoggerConfig controls the zap logger and its rotating file sink.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// SimConfig holds the arena constants. Distances are pixels, times are
// durations converted to milliseconds by the simulation.
type SimConfig struct {
	ArenaSize        float64       `mapstructure:"arena_size" yaml:"arena_size"`
	AgentRadius      float64       `mapstructure:"agent_radius" yaml:"agent_radius"`
	LimbRadius       float64       `mapstructure:"limb_radius" yaml:"limb_radius"`
	MoveSpeed        float64       `mapstructure:"move_speed" yaml:"move_speed"`
	BaseLimbLen      float64       `mapstructure:"base_limb_len" yaml:"base_limb_len"`
	LimbExtraRange   float64       `mapstructure:"limb_extra_range" yaml:"limb_extra_range"`
	LimbDamage       float64       `mapstructure:"limb_damage" yaml:"limb_damage"`
	BodyDamage       float64       `mapstructure:"body_damage" yaml:"body_damage"`
	DefenseBlockMult float64       `mapstructure:"defense_block_mult" yaml:"defense_block_mult"`
	KnockbackForce   float64       `mapstructure:"knockback_force" yaml:"knockback_force"`
	LimbSmoothing    float64       `mapstructure:"limb_smoothing" yaml:"limb_smoothing"`
	MaxHP            float64       `mapstructure:"max_hp" yaml:"max_hp"`
	StateInterval    time.Duration `mapstructure:"state_interval" yaml:"state_interval"`
	ResetDelay       time.Duration `mapstructure:"reset_delay" yaml:"reset_delay"`
	Seed             int64         `mapstructure:"seed" yaml:"seed"` // 0 = time-based
}

// RenderConfig tunes the window and terminal front ends.
type RenderConfig struct {
	Scale        float64       `mapstructure:"scale" yaml:"scale"`
	SimSpeed     float64       `mapstructure:"sim_speed" yaml:"sim_speed"`
	IndicatorTTL time.Duration `mapstructure:"indicator_ttl" yaml:"indicator_ttl"`
	ShowHUD      bool          `mapstructure:"show_hud" yaml:"show_hud"`
	TermFPS      int           `mapstructure:"term_fps" yaml:"term_fps"`
}

// AudioConfig controls hit sounds.
type AudioConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	SampleRate int  `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// CoachConfig configures the coaching side channel and its relay server.
type CoachConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	FeedURL     string        `mapstructure:"feed_url" yaml:"feed_url"`
	Player      string        `mapstructure:"player" yaml:"player"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	MaxRetries  uint64        `mapstructure:"max_retries" yaml:"max_retries"`
	Listen      string        `mapstructure:"listen" yaml:"listen"`
	Upstream    string        `mapstructure:"upstream" yaml:"upstream"`
	AllowOrigin string        `mapstructure:"allow_origin" yaml:"allow_origin"`
}

// NewDefaultConfig returns a configuration populated only from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "duel-sense")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Sim --
	v.SetDefault("sim.arena_size", 500.0)
	v.SetDefault("sim.agent_radius", 40.0)
	v.SetDefault("sim.limb_radius", 20.0)
	v.SetDefault("sim.move_speed", 2.0)
	v.SetDefault("sim.base_limb_len", 75.0)
	v.SetDefault("sim.limb_extra_range", 40.0)
	v.SetDefault("sim.limb_damage", 5.0)
	v.SetDefault("sim.body_damage", 20.0)
	v.SetDefault("sim.defense_block_mult", 0.3)
	v.SetDefault("sim.knockback_force", 15.0)
	v.SetDefault("sim.limb_smoothing", 0.15)
	v.SetDefault("sim.max_hp", 100.0)
	v.SetDefault("sim.state_interval", "2s")
	v.SetDefault("sim.reset_delay", "3s")
	v.SetDefault("sim.seed", 0)

	// -- Render --
	v.SetDefault("render.scale", 1.5)
	v.SetDefault("render.sim_speed", 1.0)
	v.SetDefault("render.indicator_ttl", "1s")
	v.SetDefault("render.show_hud", true)
	v.SetDefault("render.term_fps", 60)

	// -- Audio --
	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.sample_rate", 44100)

	// -- Coach --
	v.SetDefault("coach.enabled", false)
	v.SetDefault("coach.endpoint", "http://127.0.0.1:8888/provider/response")
	v.SetDefault("coach.feed_url", "ws://127.0.0.1:8888/ws")
	v.SetDefault("coach.player", "player")
	v.SetDefault("coach.timeout", "10s")
	v.SetDefault("coach.rate_limit", 1.0)
	v.SetDefault("coach.max_retries", 3)
	v.SetDefault("coach.listen", ":8888")
	v.SetDefault("coach.upstream", "http://127.0.0.1:6969")
	v.SetDefault("coach.allow_origin", "*")
}

// NewConfigFromViper unmarshals and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load builds a viper instance with defaults, the optional config file and
// DUEL_* environment overrides, then unmarshals it. An empty cfgFile searches
// the working directory and ~/.duel-sense for duel.yaml.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("duel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// ConfigDir returns ~/.duel-sense.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".duel-sense"), nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim configuration invalid: %w", err)
	}
	if c.Render.SimSpeed < 0 {
		return fmt.Errorf("render.sim_speed must not be negative")
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("render.scale must be positive")
	}
	if c.Audio.Enabled && c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive when audio is enabled")
	}
	if err := c.Coach.Validate(); err != nil {
		return fmt.Errorf("coach configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the arena constants.
func (s *SimConfig) Validate() error {
	if s.ArenaSize <= 0 {
		return fmt.Errorf("arena_size must be positive")
	}
	if s.AgentRadius <= 0 || s.LimbRadius <= 0 {
		return fmt.Errorf("agent_radius and limb_radius must be positive")
	}
	if s.ArenaSize < 4*s.AgentRadius {
		return fmt.Errorf("arena_size must fit two agents side by side")
	}
	if s.DefenseBlockMult < 0 || s.DefenseBlockMult > 1 {
		return fmt.Errorf("defense_block_mult must be between 0.0 and 1.0")
	}
	if s.LimbSmoothing <= 0 || s.LimbSmoothing > 1 {
		return fmt.Errorf("limb_smoothing must be in (0, 1]")
	}
	if s.MaxHP <= 0 {
		return fmt.Errorf("max_hp must be positive")
	}
	if s.StateInterval <= 0 || s.ResetDelay < 0 {
		return fmt.Errorf("state_interval must be positive and reset_delay non-negative")
	}
	return nil
}

// Validate checks the coach settings. Nothing is required while disabled.
func (c *CoachConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when coaching is enabled")
	}
	if c.Player == "" {
		return fmt.Errorf("player is required when coaching is enabled")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	return nil
}
