package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration shared by the ingestor
// and agent binaries. Each binary reads the sections it needs.
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Mongo       MongoConfig     `toml:"mongo"`
	Broker      BrokerConfig    `toml:"broker"`
	Agent       AgentConfig     `toml:"agent"`
	Auth        AuthConfig      `toml:"auth"`
	Ingest      IngestConfig    `toml:"ingest"`
	Scraper     ScraperConfig   `toml:"scraper"`
	Worker      WorkerConfig    `toml:"worker"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// MongoConfig holds connection settings for the durable store.
type MongoConfig struct {
	URI      string `toml:"uri"`      // Connection string (MONGO_URI)
	Database string `toml:"database"` // Database name (MONGO_DBNAME)
	Timeout  string `toml:"timeout"`  // Connect/ping timeout, e.g. "10s"
}

// BrokerConfig holds settings for the Redis job broker.
type BrokerConfig struct {
	URL         string `toml:"url"`          // Redis connection URL (REDIS_URL)
	QueuePrefix string `toml:"queue_prefix"` // Priority list key prefix (default: "scraping_agent_scrape_")
	PollTimeout string `toml:"poll_timeout"` // BLPOP wait per cycle, e.g. "60s"
}

// AgentConfig holds the ingestor-side settings for calling the agent API.
type AgentConfig struct {
	APIURL        string `toml:"api_url"`        // Base URL of the scraping agent (SCRAPING_AGENT_API_URL)
	Token         string `toml:"token"`          // Bearer token for agent calls (SCRAPING_AGENT_TOKEN)
	SubmitTimeout string `toml:"submit_timeout"` // Timeout for scrape submissions, e.g. "30s"
	ResultTimeout string `toml:"result_timeout"` // Per-call timeout for status/result fetches, e.g. "20s"
}

// AuthConfig holds the agent-side accepted API token.
type AuthConfig struct {
	APIAccessToken string `toml:"api_access_token"` // Bearer token required on agent endpoints (API_ACCESS_TOKEN)
}

// IngestConfig bounds the batching pipeline.
type IngestConfig struct {
	MaxBatchSize        int `toml:"max_batch_size"`         // Max product URLs per batch (MAXIMUM_BATCH_SIZE)
	MaxBatchesToProcess int `toml:"max_batches_to_process"` // Batches dispatched per scrape-batch run (MAXIMUM_BATCHES_TO_PROCESS)
}

// ScraperConfig tunes scraper construction and the instance cache.
type ScraperConfig struct {
	CacheMaxSize   int    `toml:"cache_max_size"`   // Max live scraper instances held warm (SCRAPER_CACHE_MAX_SIZE)
	ListingPageCap int    `toml:"listing_page_cap"` // Hard cap on pages walked per listing job
	UserAgent      string `toml:"user_agent"`       // User agent for loaders
	RequestTimeout string `toml:"request_timeout"`  // HTTP loader timeout, e.g. "20s"
	Headless       bool   `toml:"headless"`         // Run browser loaders headless
	PageWaitTime   string `toml:"page_wait_time"`   // Wait after navigation for JS to settle, e.g. "3s"
	MaxScrolls     int    `toml:"max_scrolls"`      // Infinite-scroll loader scroll cap
	ScrollDelay    string `toml:"scroll_delay"`     // Delay between scroll steps, e.g. "3s"
}

// WorkerConfig tunes the agent worker pool.
type WorkerConfig struct {
	Concurrency        int    `toml:"concurrency"`          // Number of worker goroutines
	StaleJobTimeout    string `toml:"stale_job_timeout"`    // Processing jobs older than this are failed, e.g. "30m"
	StaleCheckInterval string `toml:"stale_check_interval"` // How often the reaper scans, e.g. "5m"
}

// SchedulerConfig holds the periodic task schedules, anchored to Timezone.
type SchedulerConfig struct {
	Timezone      string `toml:"timezone"`       // IANA zone anchoring the cron schedules (default: Asia/Kolkata)
	ListingScrape string `toml:"listing_scrape"` // Listing scrape cron expression
	BatchCreate   string `toml:"batch_create"`   // Batch create cron expression
	BatchScrape   string `toml:"batch_scrape"`   // Batch scrape cron expression
	StatusUpdate  string `toml:"status_update"`  // Status update cron expression
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values.
// Only deployment-facing settings should be exposed in vestio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "vestio",
			Timeout:  "10s",
		},
		Broker: BrokerConfig{
			URL:         "redis://localhost:6379/0",
			QueuePrefix: "scraping_agent_scrape_",
			PollTimeout: "60s", // Broker transport polls at 60-180s
		},
		Agent: AgentConfig{
			APIURL:        "http://localhost:8081",
			SubmitTimeout: "30s",
			ResultTimeout: "20s",
		},
		Ingest: IngestConfig{
			MaxBatchSize:        100,
			MaxBatchesToProcess: 5,
		},
		Scraper: ScraperConfig{
			CacheMaxSize:   17,
			ListingPageCap: 30, // Safety guard on unbounded next-page chains
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
			RequestTimeout: "20s",
			Headless:       true,
			PageWaitTime:   "3s",
			MaxScrolls:     30,
			ScrollDelay:    "3s",
		},
		Worker: WorkerConfig{
			Concurrency:        3,
			StaleJobTimeout:    "30m",
			StaleCheckInterval: "5m",
		},
		Scheduler: SchedulerConfig{
			Timezone:      "Asia/Kolkata",
			ListingScrape: "0 6,18 * * *", // Twice daily
			BatchCreate:   "0 7,19 * * *", // Twice daily, after listing results land
			BatchScrape:   "0 8,20 * * *", // Twice daily
			StatusUpdate:  "*/15 * * * *", // Every 15 minutes
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The deployment contract names (MONGO_URI, REDIS_URL, ...) are honored
// as-is; ambient settings use the VESTIO_ prefix.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VESTIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VESTIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VESTIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Durable store
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if dbname := os.Getenv("MONGO_DBNAME"); dbname != "" {
		config.Mongo.Database = dbname
	}

	// Broker
	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Broker.URL = url
	}
	if prefix := os.Getenv("VESTIO_QUEUE_PREFIX"); prefix != "" {
		config.Broker.QueuePrefix = prefix
	}
	if poll := os.Getenv("VESTIO_QUEUE_POLL_TIMEOUT"); poll != "" {
		config.Broker.PollTimeout = poll
	}

	// Agent client (ingestor side)
	if url := os.Getenv("SCRAPING_AGENT_API_URL"); url != "" {
		config.Agent.APIURL = url
	}
	if token := os.Getenv("SCRAPING_AGENT_TOKEN"); token != "" {
		config.Agent.Token = token
	}

	// Agent auth (agent side)
	if token := os.Getenv("API_ACCESS_TOKEN"); token != "" {
		config.Auth.APIAccessToken = token
	}

	// Batching bounds
	if size := os.Getenv("MAXIMUM_BATCH_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil && s > 0 {
			config.Ingest.MaxBatchSize = s
		}
	}
	if batches := os.Getenv("MAXIMUM_BATCHES_TO_PROCESS"); batches != "" {
		if b, err := strconv.Atoi(batches); err == nil && b > 0 {
			config.Ingest.MaxBatchesToProcess = b
		}
	}

	// Scraper cache
	if size := os.Getenv("SCRAPER_CACHE_MAX_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil && s > 0 {
			config.Scraper.CacheMaxSize = s
		}
	}
	if pageCap := os.Getenv("VESTIO_LISTING_PAGE_CAP"); pageCap != "" {
		if c, err := strconv.Atoi(pageCap); err == nil && c > 0 {
			config.Scraper.ListingPageCap = c
		}
	}
	if ua := os.Getenv("VESTIO_SCRAPER_USER_AGENT"); ua != "" {
		config.Scraper.UserAgent = ua
	}
	if headless := os.Getenv("VESTIO_SCRAPER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Scraper.Headless = h
		}
	}

	// Worker pool
	if concurrency := os.Getenv("VESTIO_WORKER_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Worker.Concurrency = c
		}
	}
	if timeout := os.Getenv("VESTIO_WORKER_STALE_JOB_TIMEOUT"); timeout != "" {
		config.Worker.StaleJobTimeout = timeout
	}

	// Scheduler
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		config.Scheduler.Timezone = tz
	}
	if schedule := os.Getenv("VESTIO_SCHEDULE_LISTING_SCRAPE"); schedule != "" {
		config.Scheduler.ListingScrape = schedule
	}
	if schedule := os.Getenv("VESTIO_SCHEDULE_BATCH_CREATE"); schedule != "" {
		config.Scheduler.BatchCreate = schedule
	}
	if schedule := os.Getenv("VESTIO_SCHEDULE_BATCH_SCRAPE"); schedule != "" {
		config.Scheduler.BatchScrape = schedule
	}
	if schedule := os.Getenv("VESTIO_SCHEDULE_STATUS_UPDATE"); schedule != "" {
		config.Scheduler.StatusUpdate = schedule
	}

	// Logging configuration
	if level := os.Getenv("VESTIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VESTIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VESTIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ValidateTaskSchedule validates a cron schedule expression (standard 5-field form).
func ValidateTaskSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// ValidateSchedules validates all four pipeline task schedules.
func (c *Config) ValidateSchedules() error {
	schedules := map[string]string{
		"listing_scrape": c.Scheduler.ListingScrape,
		"batch_create":   c.Scheduler.BatchCreate,
		"batch_scrape":   c.Scheduler.BatchScrape,
		"status_update":  c.Scheduler.StatusUpdate,
	}
	for name, schedule := range schedules {
		if err := ValidateTaskSchedule(schedule); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Duration parses a duration string field, returning fallback when unset or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
