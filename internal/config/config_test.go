package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "duel-sense", cfg.Logger.ServiceName)
	assert.Equal(t, 500.0, cfg.Sim.ArenaSize)
	assert.Equal(t, 40.0, cfg.Sim.AgentRadius)
	assert.Equal(t, 0.3, cfg.Sim.DefenseBlockMult)
	assert.Equal(t, 2*time.Second, cfg.Sim.StateInterval)
	assert.Equal(t, 3*time.Second, cfg.Sim.ResetDelay)
	assert.Equal(t, time.Second, cfg.Render.IndicatorTTL)
	assert.True(t, cfg.Audio.Enabled)
	assert.False(t, cfg.Coach.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	t.Run("Sim", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Sim.DefenseBlockMult = 1.5
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "defense_block_mult")

		cfg = NewDefaultConfig()
		cfg.Sim.ArenaSize = 100
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fit two agents")

		cfg = NewDefaultConfig()
		cfg.Sim.StateInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Render", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Render.SimSpeed = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("Coach only checked when enabled", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Coach.Endpoint = ""
		assert.NoError(t, cfg.Validate())

		cfg.Coach.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint is required")
	})
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("sim.seed", 99)
	v.Set("sim.reset_delay", "500ms")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Sim.Seed)
	assert.Equal(t, 500*time.Millisecond, cfg.Sim.ResetDelay)
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("sim.max_hp", 0)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duel.yaml")
	yaml := []byte("sim:\n  body_damage: 25\ncoach:\n  player: alice\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("DUEL_SIM_LIMB_DAMAGE", "7")

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 25.0, cfg.Sim.BodyDamage)
	assert.Equal(t, 7.0, cfg.Sim.LimbDamage)
	assert.Equal(t, "alice", cfg.Coach.Player)
	assert.Equal(t, 40.0, cfg.Sim.AgentRadius, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
