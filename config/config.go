package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Salesflow   SalesflowConfig   `yaml:"salesflow"`
	Channels    ChannelsConfig    `yaml:"channels"`
	Processor   ProcessorConfig   `yaml:"processor"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type SalesflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	ResultBuffer int `yaml:"result_buffer"`
}

type ProcessorConfig struct {
	// MaxWorkers caps the number of parallel chunk normalizers. Zero means
	// one worker per available CPU.
	MaxWorkers int `yaml:"max_workers"`
}

type FetcherConfig struct {
	BaseURL        string               `yaml:"base_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
	Endpoints      EndpointsConfig      `yaml:"endpoints"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type EndpointsConfig struct {
	Movements string `yaml:"movements"`
	Agents    string `yaml:"agents"`
	Visits    string `yaml:"visits"`
	Promos    string `yaml:"promos"`
	Alerts    string `yaml:"alerts"`
}

type AggregationConfig struct {
	// IgnoreArticleNames lists line item descriptions excluded from brand and
	// article rankings (freight, core returns and similar non-product rows).
	IgnoreArticleNames []string `yaml:"ignore_article_names"`
	TopBrandLimit      int      `yaml:"top_brand_limit"`
	TopArticleLimit    int      `yaml:"top_article_limit"`
	DistributionMobile int      `yaml:"distribution_mobile"`
	DistributionTop    int      `yaml:"distribution_top"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type DashboardConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Address         string        `yaml:"address"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogHistory      int           `yaml:"log_history"`
	MetricsHistory  int           `yaml:"metrics_history"`
}

type MetricsConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type LoggingConfig struct {
	Level      string           `yaml:"level"`
	Format     string           `yaml:"format"`
	Output     string           `yaml:"output"`
	MaxAge     int              `yaml:"max_age"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Aggregation: AggregationConfig{
			TopBrandLimit:      10,
			TopArticleLimit:    5,
			DistributionMobile: 8,
			DistributionTop:    25,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override source settings from environment variables if available
	if v := os.Getenv("SALESFLOW_API_BASE_URL"); v != "" {
		config.Fetcher.BaseURL = strings.TrimSpace(v)
	}
	if config.Logging.CloudWatch.Enabled {
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Logging.CloudWatch.Region = strings.TrimSpace(v)
		}
	}

	config.Fetcher.BaseURL = strings.TrimSpace(config.Fetcher.BaseURL)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Salesflow.Name == "" {
		return fmt.Errorf("salesflow.name is required")
	}

	if cfg.Salesflow.Version == "" {
		return fmt.Errorf("salesflow.version is required")
	}

	if cfg.Channels.ResultBuffer <= 0 {
		return fmt.Errorf("channels.result_buffer must be greater than 0")
	}

	if cfg.Processor.MaxWorkers < 0 {
		return fmt.Errorf("processor.max_workers must not be negative")
	}

	if cfg.Fetcher.BaseURL == "" {
		return fmt.Errorf("fetcher.base_url is required")
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be greater than 0")
	}
	if cfg.Fetcher.Endpoints.Movements == "" {
		return fmt.Errorf("fetcher.endpoints.movements is required")
	}

	if cfg.Refresh.Interval < 0 {
		return fmt.Errorf("refresh.interval must not be negative")
	}

	if cfg.Aggregation.TopBrandLimit <= 0 {
		return fmt.Errorf("aggregation.top_brand_limit must be greater than 0")
	}
	if cfg.Aggregation.DistributionMobile <= 0 || cfg.Aggregation.DistributionTop <= 0 {
		return fmt.Errorf("aggregation distribution limits must be greater than 0")
	}

	return nil
}
