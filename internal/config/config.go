// Package config defines environment configuration structs, loaders, and
// startup validation for the harvester node.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig aggregates every environment config group consumed by the node.
type AppConfig struct {
	ChainEnvConfig
	WalletEnvConfig
	SidecarEnvConfig
	AxonEnvConfig
	OracleEnvConfig
	MetricsEnvConfig
	ValidatorEnvConfig
	MinerEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChainEnvConfig holds chain-specific environment values.
type ChainEnvConfig struct {
	Netuid      int    `env:"NETUID" envDefault:"42"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
}

// WalletEnvConfig holds wallet key configuration.
type WalletEnvConfig struct {
	WalletHotkey  string `env:"WALLET_HOTKEY"`
	WalletColdkey string `env:"WALLET_COLDKEY"`
}

// SidecarEnvConfig contains the chain sidecar service target.
type SidecarEnvConfig struct {
	SidecarHost string `env:"SIDECAR_HOST" envDefault:"127.0.0.1"`
	SidecarPort string `env:"SIDECAR_PORT" envDefault:"3000"`
}

// AxonEnvConfig configures the miner's RPC server.
type AxonEnvConfig struct {
	AxonIP        string `env:"AXON_IP" envDefault:"0.0.0.0"`
	AxonPort      int    `env:"AXON_PORT" envDefault:"8091"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
}

// OracleEnvConfig configures the scraping oracle the miner delegates to.
type OracleEnvConfig struct {
	OracleURL       string        `env:"ORACLE_URL" envDefault:"http://127.0.0.1:8080"`
	OracleTimeout   time.Duration `env:"ORACLE_TIMEOUT" envDefault:"20s"`
	MaxItemsPerTask int           `env:"MAX_ITEMS_PER_TASK" envDefault:"100"`
	OracleRetryMax  int           `env:"ORACLE_RETRY_MAX" envDefault:"3"`
}

// MetricsEnvConfig configures the metrics endpoint.
type MetricsEnvConfig struct {
	MetricsPort int `env:"METRICS_PORT" envDefault:"9100"`
}

// ValidatorEnvConfig configures the validator incentive loop.
type ValidatorEnvConfig struct {
	RoundPeriod       time.Duration `env:"ROUND_PERIOD" envDefault:"5m"`
	TaskTimeout       time.Duration `env:"TASK_TIMEOUT" envDefault:"15s"`
	SampleSize        int           `env:"SAMPLE_SIZE" envDefault:"32"`
	TargetCount       int           `env:"TARGET_COUNT" envDefault:"10"`
	MaxConcurrency    int           `env:"MAX_CONCURRENCY" envDefault:"64"`
	FreshnessWindow   time.Duration `env:"FRESHNESS_WINDOW" envDefault:"24h"`
	DedupWindow       time.Duration `env:"DEDUP_WINDOW" envDefault:"30m"`
	EmaAlpha          float64       `env:"EMA_ALPHA" envDefault:"0.1"`
	VolumeWeight      float64       `env:"VOLUME_WEIGHT" envDefault:"0.5"`
	UniquenessWeight  float64       `env:"UNIQUENESS_WEIGHT" envDefault:"0.3"`
	LatencyWeight     float64       `env:"LATENCY_WEIGHT" envDefault:"0.2"`
	RegistryInterval  time.Duration `env:"REGISTRY_INTERVAL" envDefault:"1m"`
	WeightSetInterval time.Duration `env:"WEIGHT_SET_INTERVAL" envDefault:"20m"`
	StateFile         string        `env:"STATE_FILE" envDefault:"state.json"`
	Keywords          []string      `env:"KEYWORDS" envSeparator:"," envDefault:"#bitcoin,#ai,#crypto,#web3"`
}

// MinerEnvConfig configures the miner runtime.
type MinerEnvConfig struct {
	MinStakeRequired float64 `env:"MIN_STAKE_REQUIRED" envDefault:"0"`
}

// Validate fails fast on out-of-range validator parameters. Any error here is
// fatal at startup; the scheduler must never run with an invalid policy.
func (c *ValidatorEnvConfig) Validate() error {
	if c.RoundPeriod <= 0 {
		return fmt.Errorf("ROUND_PERIOD must be positive, got %s", c.RoundPeriod)
	}
	if c.TaskTimeout <= 0 || c.TaskTimeout >= c.RoundPeriod {
		return fmt.Errorf("TASK_TIMEOUT must be positive and below ROUND_PERIOD, got %s", c.TaskTimeout)
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("SAMPLE_SIZE must be positive, got %d", c.SampleSize)
	}
	if c.TargetCount <= 0 {
		return fmt.Errorf("TARGET_COUNT must be positive, got %d", c.TargetCount)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("MAX_CONCURRENCY must be positive, got %d", c.MaxConcurrency)
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("DEDUP_WINDOW must be positive, got %s", c.DedupWindow)
	}
	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("FRESHNESS_WINDOW must be positive, got %s", c.FreshnessWindow)
	}
	if c.EmaAlpha <= 0 || c.EmaAlpha > 1 {
		return fmt.Errorf("EMA_ALPHA must be in (0,1], got %f", c.EmaAlpha)
	}
	if c.VolumeWeight < 0 || c.UniquenessWeight < 0 || c.LatencyWeight < 0 {
		return fmt.Errorf("score component weights must be non-negative, got %f/%f/%f",
			c.VolumeWeight, c.UniquenessWeight, c.LatencyWeight)
	}
	if c.VolumeWeight+c.UniquenessWeight+c.LatencyWeight <= 0 {
		return fmt.Errorf("score component weights must sum positively, got %f/%f/%f",
			c.VolumeWeight, c.UniquenessWeight, c.LatencyWeight)
	}
	if c.RegistryInterval <= 0 {
		return fmt.Errorf("REGISTRY_INTERVAL must be positive, got %s", c.RegistryInterval)
	}
	if c.WeightSetInterval < c.RoundPeriod {
		return fmt.Errorf("WEIGHT_SET_INTERVAL must be at least ROUND_PERIOD, got %s", c.WeightSetInterval)
	}
	if len(c.Keywords) == 0 {
		return fmt.Errorf("KEYWORDS must not be empty")
	}
	return nil
}
