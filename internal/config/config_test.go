package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ValidatorEnvConfig {
	return &ValidatorEnvConfig{
		RoundPeriod:       5 * time.Minute,
		TaskTimeout:       15 * time.Second,
		SampleSize:        32,
		TargetCount:       10,
		MaxConcurrency:    64,
		FreshnessWindow:   24 * time.Hour,
		DedupWindow:       30 * time.Minute,
		EmaAlpha:          0.1,
		VolumeWeight:      0.5,
		UniquenessWeight:  0.3,
		LatencyWeight:     0.2,
		RegistryInterval:  time.Minute,
		WeightSetInterval: 20 * time.Minute,
		StateFile:         "state.json",
		Keywords:          []string{"#bitcoin"},
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ValidatorEnvConfig)
	}{
		{"zero round period", func(c *ValidatorEnvConfig) { c.RoundPeriod = 0 }},
		{"task timeout above round period", func(c *ValidatorEnvConfig) { c.TaskTimeout = 10 * time.Minute }},
		{"zero sample size", func(c *ValidatorEnvConfig) { c.SampleSize = 0 }},
		{"zero target count", func(c *ValidatorEnvConfig) { c.TargetCount = 0 }},
		{"zero concurrency", func(c *ValidatorEnvConfig) { c.MaxConcurrency = 0 }},
		{"zero dedup window", func(c *ValidatorEnvConfig) { c.DedupWindow = 0 }},
		{"alpha above one", func(c *ValidatorEnvConfig) { c.EmaAlpha = 1.5 }},
		{"alpha zero", func(c *ValidatorEnvConfig) { c.EmaAlpha = 0 }},
		{"negative component weight", func(c *ValidatorEnvConfig) { c.LatencyWeight = -0.2 }},
		{"weights sum to zero", func(c *ValidatorEnvConfig) {
			c.VolumeWeight, c.UniquenessWeight, c.LatencyWeight = 0, 0, 0
		}},
		{"weight interval below round period", func(c *ValidatorEnvConfig) { c.WeightSetInterval = time.Minute }},
		{"no keywords", func(c *ValidatorEnvConfig) { c.Keywords = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Netuid)
	assert.Equal(t, 8091, cfg.AxonPort)
	assert.Equal(t, 5*time.Minute, cfg.RoundPeriod)
	assert.NoError(t, cfg.Validate())
}
