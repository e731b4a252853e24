package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/seaice-catalog/internal/adapter/locator"
	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath          string
	HistoryStart    time.Time
	HTTPTimeout     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RefreshInterval time.Duration

	// Source archives.
	NICSearchURL   string
	CISArchiveURL  string
	ProbeCacheSize int

	// Change feed. Empty KafkaBrokers disables publishing.
	KafkaBrokers []string
	KafkaTopic   string

	ExportConcurrency int
}

// FeedEnabled reports whether committed records are published to Kafka.
func (c *Config) FeedEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}

	historyStart, err := time.Parse(domain.EpochLayout, sharedcfg.EnvOrDefault("HISTORY_START", "1968-06-25"))
	if err != nil {
		return nil, errors.New("invalid HISTORY_START: want YYYY-MM-DD")
	}

	probeCacheSize, err := parsePositiveInt("PROBE_CACHE_SIZE", 4096)
	if err != nil {
		return nil, err
	}

	exportConcurrency, err := parsePositiveInt("EXPORT_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DBPath:          sharedcfg.EnvOrDefault("CATALOG_DB", "icecharts.sqlite"),
		HistoryStart:    historyStart,
		HTTPTimeout:     httpTimeout,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,

		NICSearchURL:   sharedcfg.EnvOrDefault("NIC_SEARCH_URL", locator.DefaultNICSearchURL),
		CISArchiveURL:  sharedcfg.EnvOrDefault("CIS_ARCHIVE_URL", locator.DefaultCISArchiveURL),
		ProbeCacheSize: probeCacheSize,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "icechart-records"),

		ExportConcurrency: exportConcurrency,
	}

	if cfg.DBPath == "" {
		return nil, errors.New("CATALOG_DB is required")
	}
	if cfg.FeedEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
