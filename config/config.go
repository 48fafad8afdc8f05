package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Oisentry OisentryConfig `yaml:"oisentry"`
	Source   SourceConfig   `yaml:"source"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type OisentryConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	Binance BinanceSourceConfig `yaml:"binance"`
}

type BinanceSourceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ScannerConfig struct {
	Period         time.Duration `yaml:"period"`
	OIPeriod       string        `yaml:"oi_period"`
	Concurrency    int           `yaml:"concurrency"`
	SpikeThreshold float64       `yaml:"spike_threshold"`
	LogTopSpikes   int           `yaml:"log_top_spikes"`
}

type APIConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type MetricsConfig struct {
	Enabled    bool             `yaml:"enabled"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override CloudWatch region from environment if available
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Metrics.CloudWatch.Region = strings.TrimSpace(v)
	}

	config.Source.Binance.BaseURL = strings.TrimRight(strings.TrimSpace(config.Source.Binance.BaseURL), "/")

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// defaultConfig carries the reference scan parameters. Values present in the
// YAML file override them.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Binance: BinanceSourceConfig{
				BaseURL: "https://fapi.binance.com",
				Timeout: 10 * time.Second,
				ConnectionPool: ConnectionPoolConfig{
					MaxIdleConns:    20,
					MaxConnsPerHost: 20,
					IdleConnTimeout: 90 * time.Second,
				},
				RateLimit: RateLimitConfig{
					RequestsPerSecond: 20,
					BurstSize:         20,
				},
			},
		},
		Scanner: ScannerConfig{
			Period:         5 * time.Minute,
			OIPeriod:       "5m",
			Concurrency:    20,
			SpikeThreshold: 8.0,
			LogTopSpikes:   20,
		},
		API: APIConfig{
			Address:      "0.0.0.0:8000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Oisentry.Name == "" {
		return fmt.Errorf("oisentry.name is required")
	}

	if cfg.Oisentry.Version == "" {
		return fmt.Errorf("oisentry.version is required")
	}

	if cfg.Source.Binance.BaseURL == "" {
		return fmt.Errorf("source.binance.base_url is required")
	}

	if cfg.Source.Binance.Timeout <= 0 {
		return fmt.Errorf("source.binance.timeout must be greater than 0")
	}

	if cfg.Scanner.Period < time.Minute {
		return fmt.Errorf("scanner.period must be at least one minute")
	}

	if cfg.Scanner.OIPeriod == "" {
		return fmt.Errorf("scanner.oi_period is required")
	}

	if cfg.Scanner.Concurrency <= 0 {
		return fmt.Errorf("scanner.concurrency must be greater than 0")
	}

	if cfg.Scanner.SpikeThreshold <= 0 {
		return fmt.Errorf("scanner.spike_threshold must be greater than 0")
	}

	if cfg.API.Address == "" {
		return fmt.Errorf("api.address is required")
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when CloudWatch is enabled")
	}

	return nil
}
