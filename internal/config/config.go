package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

const (
	StrategyFeed   = "feed"
	StrategyMarkup = "markup"
)

type Config struct {
	Server    ServerConfig            `toml:"server"`
	Feed      FeedConfig              `toml:"feed"`
	Storage   StorageConfig           `toml:"storage"`
	Broadcast BroadcastConfig         `toml:"broadcast"`
	Sources   map[string]SourceConfig `toml:"sources"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

// FeedConfig controls the optional HTTP endpoints that republish a bounded
// window of recently broadcast items.
type FeedConfig struct {
	Enabled bool `toml:"enabled"`
	Size    int  `toml:"size"`
}

type StorageConfig struct {
	Type string `toml:"type"`
	Path string `toml:"path"`
}

type BroadcastConfig struct {
	QueueSize    int    `toml:"queue_size"`
	ItemDelay    string `toml:"item_delay"`
	StartupDelay string `toml:"startup_delay"`
}

type SourceConfig struct {
	Name      string    `toml:"name"`
	URL       string    `toml:"url"`
	Strategy  string    `toml:"strategy"`
	Interval  string    `toml:"interval"`
	Selectors Selectors `toml:"selectors"`
}

// Selectors configures the markup extraction strategy. Container locates the
// element holding the item list, Item matches one entry inside it, and the
// field selectors are resolved independently per entry.
type Selectors struct {
	Container string `toml:"container"`
	Item      string `toml:"item"`
	Title     string `toml:"title"`
	Link      string `toml:"link"`
	Date      string `toml:"date"`
	Summary   string `toml:"summary"`
	BaseURL   string `toml:"base_url"`
}

// ID derives the stable source identifier from the address alone, so persisted
// cursors survive renames and reordering of the configuration.
func (s SourceConfig) ID() string {
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(s.URL)).String()
}

func (s SourceConfig) PollInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

func (c BroadcastConfig) ItemDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.ItemDelay)
	if err != nil {
		return 0
	}
	return d
}

func (c BroadcastConfig) StartupDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.StartupDelay)
	if err != nil {
		return 0
	}
	return d
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Listen == "" {
		config.Server.Listen = "127.0.0.1:8000"
	}

	if config.Feed.Size == 0 {
		config.Feed.Size = 100
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "sqlite"
	}

	if config.Storage.Path == "" {
		config.Storage.Path = "./scrapestream.db"
	}

	if config.Broadcast.QueueSize == 0 {
		config.Broadcast.QueueSize = 256
	}

	if config.Broadcast.ItemDelay == "" {
		config.Broadcast.ItemDelay = "100ms"
	}

	if _, err := time.ParseDuration(config.Broadcast.ItemDelay); err != nil {
		return fmt.Errorf("invalid item_delay: %w", err)
	}

	if config.Broadcast.StartupDelay == "" {
		config.Broadcast.StartupDelay = "2s"
	}

	if _, err := time.ParseDuration(config.Broadcast.StartupDelay); err != nil {
		return fmt.Errorf("invalid startup_delay: %w", err)
	}

	if len(config.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	for name, src := range config.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %s: url is required", name)
		}

		switch src.Strategy {
		case StrategyFeed, StrategyMarkup:
		default:
			return fmt.Errorf("source %s: unsupported extraction strategy: %q", name, src.Strategy)
		}

		if src.Interval == "" {
			src.Interval = "5m"
		}

		if _, err := time.ParseDuration(src.Interval); err != nil {
			return fmt.Errorf("source %s: invalid interval: %w", name, err)
		}

		if src.Name == "" {
			src.Name = name
		}

		config.Sources[name] = src
	}

	return nil
}
