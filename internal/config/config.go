package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Feeds      Feeds      `mapstructure:"feeds"`
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Links      Links      `mapstructure:"links"`
	Summarizer Summarizer `mapstructure:"summarizer"`
	Cache      Cache      `mapstructure:"cache"`
	Output     Output     `mapstructure:"output"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// FeedSource is one configured feed endpoint. Name overrides the display
// name derived from the endpoint host.
type FeedSource struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// Feeds holds feed fetching configuration
type Feeds struct {
	Sources     []FeedSource `mapstructure:"sources"`
	ProxyURLs   []string     `mapstructure:"proxy_urls"` // tried in order after the direct endpoint
	UserAgent   string       `mapstructure:"user_agent"`
	Timeout     string       `mapstructure:"timeout"`
	Stagger     string       `mapstructure:"stagger"` // delay between feed dispatches
	Concurrency int          `mapstructure:"concurrency"`
}

// Pipeline holds the ingestion pipeline knobs
type Pipeline struct {
	WindowDays int `mapstructure:"window_days"` // recency window
	TopK       int `mapstructure:"top_k"`       // cutoff after sorting
	MinThreats int `mapstructure:"min_threats"` // padding floor for display
}

// Links holds link resolution configuration
type Links struct {
	Probe        bool   `mapstructure:"probe"` // live HEAD probing, off by default
	ProbeTimeout string `mapstructure:"probe_timeout"`
}

// Summarizer holds summarization configuration
type Summarizer struct {
	Endpoints []string `mapstructure:"endpoints"`  // remote endpoints tried in order
	AuthToken string   `mapstructure:"auth_token"` // bearer token for the remote endpoints
	Timeout   string   `mapstructure:"timeout"`
	MaxLength int      `mapstructure:"max_length"` // summary length budget in characters
	MinInput  int      `mapstructure:"min_input"`  // inputs shorter than this are returned verbatim
}

// Cache holds persistence configuration
type Cache struct {
	Directory  string `mapstructure:"directory"`
	ThreatFile string `mapstructure:"threat_file"` // JSON threat cache filename
	SummaryTTL string `mapstructure:"summary_ttl"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

var globalConfig *Config

// Load loads the configuration from file, environment, and defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".threatbrief")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("THREATBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The source registry must never be empty; fall back to the built-in list.
	if len(config.Feeds.Sources) == 0 {
		config.Feeds.Sources = DefaultSources()
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// DefaultSources returns the built-in cybersecurity feed registry.
// Extending this list at runtime is a configuration change, not a code change.
func DefaultSources() []FeedSource {
	return []FeedSource{
		{URL: "https://feeds.feedburner.com/TheHackersNews", Name: "The Hacker News"},
		{URL: "https://www.bleepingcomputer.com/feed/", Name: "BleepingComputer"},
		{URL: "https://krebsonsecurity.com/feed/", Name: "Krebs on Security"},
		{URL: "https://www.darkreading.com/rss.xml", Name: "Dark Reading"},
		{URL: "https://feeds.feedburner.com/securityweek", Name: "SecurityWeek"},
		{URL: "https://www.cisa.gov/cybersecurity-advisories/all.xml", Name: "CISA"},
		{URL: "https://threatpost.com/feed/"},
		{URL: "https://www.securitymagazine.com/rss/topic/2236"},
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".threatbrief-cache")

	viper.SetDefault("feeds.user_agent", "threatbrief/1.0")
	viper.SetDefault("feeds.timeout", "15s")
	viper.SetDefault("feeds.stagger", "500ms")
	viper.SetDefault("feeds.concurrency", 5)

	viper.SetDefault("pipeline.window_days", 7)
	viper.SetDefault("pipeline.top_k", 50)
	viper.SetDefault("pipeline.min_threats", 4)

	viper.SetDefault("links.probe", false)
	viper.SetDefault("links.probe_timeout", "5s")

	viper.SetDefault("summarizer.timeout", "10s")
	viper.SetDefault("summarizer.max_length", 300)
	viper.SetDefault("summarizer.min_input", 50)

	viper.SetDefault("cache.directory", ".threatbrief-cache")
	viper.SetDefault("cache.threat_file", "threats.json")
	viper.SetDefault("cache.summary_ttl", "168h")

	viper.SetDefault("output.directory", "newsletters")
}

// validateConfig checks invariants that would otherwise surface deep in a run.
func validateConfig(config *Config) error {
	if config.Pipeline.WindowDays <= 0 {
		return fmt.Errorf("pipeline.window_days must be positive, got %d", config.Pipeline.WindowDays)
	}
	if config.Pipeline.TopK <= 0 {
		return fmt.Errorf("pipeline.top_k must be positive, got %d", config.Pipeline.TopK)
	}
	if config.Pipeline.MinThreats < 0 {
		return fmt.Errorf("pipeline.min_threats must not be negative, got %d", config.Pipeline.MinThreats)
	}
	for i, src := range config.Feeds.Sources {
		if src.URL == "" {
			return fmt.Errorf("feeds.sources[%d] has an empty url", i)
		}
	}
	return nil
}

// ParseDuration parses a duration string with a fallback default.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
