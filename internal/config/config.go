package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SnapshotPath    string
	CatalogPath     string
	HeightCacheSize int
	TrackedHeights  []int

	// Upstream sources.
	AttractionsBaseURL string
	ShowsBaseURL       string
	QueueTimesURL      string
	FetchTimeout       time.Duration
	FetchInterval      time.Duration

	// Refresh schedule.
	ScrapeInterval time.Duration
	LiveInterval   time.Duration

	// Snapshot publication.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is read first when present;
// variables already set in the environment win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchInterval, err := parseDuration("FETCH_INTERVAL", "300ms")
	if err != nil {
		return nil, err
	}
	scrapeInterval, err := parseDuration("SCRAPE_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}
	liveInterval, err := parseDuration("LIVE_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	heights, err := parseHeights(os.Getenv("TRACKED_HEIGHTS"))
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("HEIGHT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SnapshotPath:    sharedcfg.EnvOrDefault("SNAPSHOT_PATH", "data/attractions.json"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		HeightCacheSize: cacheSize,
		TrackedHeights:  heights,

		AttractionsBaseURL: sharedcfg.EnvOrDefault("ATTRACTIONS_BASE_URL", "https://www.efteling.com/en/park/attractions"),
		ShowsBaseURL:       sharedcfg.EnvOrDefault("SHOWS_BASE_URL", "https://www.efteling.com/en/park/shows"),
		QueueTimesURL:      sharedcfg.EnvOrDefault("QUEUE_TIMES_URL", "https://queue-times.com/parks/160/queue_times.json"),
		FetchTimeout:       fetchTimeout,
		FetchInterval:      fetchInterval,

		ScrapeInterval: scrapeInterval,
		LiveInterval:   liveInterval,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "attraction-records"),
	}

	if cfg.SnapshotPath == "" {
		return nil, errors.New("SNAPSHOT_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// parseHeights reads a comma-separated list of tracked heights in cm.
func parseHeights(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return append([]int(nil), domain.DefaultTrackedHeights...), nil
	}

	var heights []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid TRACKED_HEIGHTS entry %q", part)
		}
		if err := domain.ValidateQueryHeight(h); err != nil {
			return nil, fmt.Errorf("invalid TRACKED_HEIGHTS: %w", err)
		}
		if !seen[h] {
			seen[h] = true
			heights = append(heights, h)
		}
	}
	if len(heights) == 0 {
		return nil, errors.New("invalid TRACKED_HEIGHTS: no heights")
	}
	return heights, nil
}
