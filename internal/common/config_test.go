package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile drops a TOML fragment into a temp dir and returns its path.
func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", config.Server.Port)
	}
	if config.Broker.QueuePrefix != "scraping_agent_scrape_" {
		t.Errorf("Broker.QueuePrefix = %s, want scraping_agent_scrape_", config.Broker.QueuePrefix)
	}
	if config.Ingest.MaxBatchSize != 100 {
		t.Errorf("Ingest.MaxBatchSize = %d, want 100", config.Ingest.MaxBatchSize)
	}
	if config.Ingest.MaxBatchesToProcess != 5 {
		t.Errorf("Ingest.MaxBatchesToProcess = %d, want 5", config.Ingest.MaxBatchesToProcess)
	}
	if config.Scraper.CacheMaxSize != 17 {
		t.Errorf("Scraper.CacheMaxSize = %d, want 17", config.Scraper.CacheMaxSize)
	}
	if config.Scraper.ListingPageCap != 30 {
		t.Errorf("Scraper.ListingPageCap = %d, want 30", config.Scraper.ListingPageCap)
	}
	if config.Worker.Concurrency != 3 {
		t.Errorf("Worker.Concurrency = %d, want 3", config.Worker.Concurrency)
	}
	if config.Scheduler.Timezone != "Asia/Kolkata" {
		t.Errorf("Scheduler.Timezone = %s, want Asia/Kolkata", config.Scheduler.Timezone)
	}
	if err := config.ValidateSchedules(); err != nil {
		t.Errorf("default schedules should validate: %v", err)
	}
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MAXIMUM_BATCH_SIZE", "")

	path := writeConfigFile(t, "vestio.toml", `
environment = "production"

[server]
port = 9090

[mongo]
uri = "mongodb://db:27017"
database = "vestio_test"

[ingest]
max_batch_size = 50
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Environment != "production" {
		t.Errorf("Environment = %s, want production", config.Environment)
	}
	if config.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", config.Server.Port)
	}
	if config.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Mongo.URI = %s, want mongodb://db:27017", config.Mongo.URI)
	}
	if config.Ingest.MaxBatchSize != 50 {
		t.Errorf("Ingest.MaxBatchSize = %d, want 50", config.Ingest.MaxBatchSize)
	}

	// Untouched sections keep their defaults
	if config.Broker.QueuePrefix != "scraping_agent_scrape_" {
		t.Errorf("Broker.QueuePrefix = %s, want default", config.Broker.QueuePrefix)
	}
	if config.Worker.Concurrency != 3 {
		t.Errorf("Worker.Concurrency = %d, want default 3", config.Worker.Concurrency)
	}
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[server]
port = 9090
host = "0.0.0.0"
`)
	local := writeConfigFile(t, "local.toml", `
[server]
port = 9191
`)

	config, err := LoadFromFiles(base, local)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191 from later file", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %s, earlier file value should survive", config.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/vestio.toml")
	if err == nil {
		t.Fatal("LoadFromFiles() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestLoadFromFiles_MalformedTOML(t *testing.T) {
	path := writeConfigFile(t, "broken.toml", `[server`)

	_, err := LoadFromFiles(path)
	if err == nil {
		t.Fatal("LoadFromFiles() expected error for malformed TOML")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://env-host:27017")
	t.Setenv("REDIS_URL", "redis://env-host:6379/2")
	t.Setenv("SCRAPING_AGENT_API_URL", "http://agent:8081")
	t.Setenv("SCRAPING_AGENT_TOKEN", "env-token")
	t.Setenv("API_ACCESS_TOKEN", "agent-side-token")
	t.Setenv("MAXIMUM_BATCH_SIZE", "250")
	t.Setenv("SCRAPER_CACHE_MAX_SIZE", "5")
	t.Setenv("TIMEZONE", "Australia/Sydney")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Mongo.URI != "mongodb://env-host:27017" {
		t.Errorf("Mongo.URI = %s", config.Mongo.URI)
	}
	if config.Broker.URL != "redis://env-host:6379/2" {
		t.Errorf("Broker.URL = %s", config.Broker.URL)
	}
	if config.Agent.APIURL != "http://agent:8081" {
		t.Errorf("Agent.APIURL = %s", config.Agent.APIURL)
	}
	if config.Agent.Token != "env-token" {
		t.Errorf("Agent.Token = %s", config.Agent.Token)
	}
	if config.Auth.APIAccessToken != "agent-side-token" {
		t.Errorf("Auth.APIAccessToken = %s", config.Auth.APIAccessToken)
	}
	if config.Ingest.MaxBatchSize != 250 {
		t.Errorf("Ingest.MaxBatchSize = %d, want 250", config.Ingest.MaxBatchSize)
	}
	if config.Scraper.CacheMaxSize != 5 {
		t.Errorf("Scraper.CacheMaxSize = %d, want 5", config.Scraper.CacheMaxSize)
	}
	if config.Scheduler.Timezone != "Australia/Sydney" {
		t.Errorf("Scheduler.Timezone = %s", config.Scheduler.Timezone)
	}
}

func TestEnvOverrides_BeatFileValues(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://from-env:27017")

	path := writeConfigFile(t, "vestio.toml", `
[mongo]
uri = "mongodb://from-file:27017"
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Mongo.URI != "mongodb://from-env:27017" {
		t.Errorf("Mongo.URI = %s, env should win over file", config.Mongo.URI)
	}
}

func TestEnvOverrides_InvalidNumbersIgnored(t *testing.T) {
	t.Setenv("MAXIMUM_BATCH_SIZE", "ten")
	t.Setenv("VESTIO_WORKER_CONCURRENCY", "-3")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Ingest.MaxBatchSize != 100 {
		t.Errorf("Ingest.MaxBatchSize = %d, unparseable env should keep default", config.Ingest.MaxBatchSize)
	}
	if config.Worker.Concurrency != 3 {
		t.Errorf("Worker.Concurrency = %d, non-positive env should keep default", config.Worker.Concurrency)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{"empty uses fallback", "", 30 * time.Second, 30 * time.Second},
		{"seconds", "45s", 30 * time.Second, 45 * time.Second},
		{"minutes", "2m", time.Second, 2 * time.Minute},
		{"compound", "1m30s", time.Second, 90 * time.Second},
		{"garbage uses fallback", "soon", 10 * time.Second, 10 * time.Second},
		{"bare number uses fallback", "30", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Duration(tt.value, tt.fallback)
			if got != tt.want {
				t.Errorf("Duration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateTaskSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"twice daily", "0 6,18 * * *", false},
		{"every fifteen minutes", "*/15 * * * *", false},
		{"weekdays only", "0 9 * * 1-5", false},
		{"not a cron", "whenever", true},
		{"minute out of range", "61 * * * *", true},
		{"six fields rejected", "0 0 6 * * *", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskSchedule(tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaskSchedule(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSchedules_NamesTheBadSchedule(t *testing.T) {
	config := NewDefaultConfig()
	config.Scheduler.BatchCreate = "every other tuesday"

	err := config.ValidateSchedules()
	if err == nil {
		t.Fatal("ValidateSchedules() expected error")
	}
	if !strings.Contains(err.Error(), "batch_create") {
		t.Errorf("error = %v, want it to name batch_create", err)
	}
}

func TestLocation(t *testing.T) {
	config := NewDefaultConfig()
	if loc := config.Location(); loc.String() != "Asia/Kolkata" {
		t.Errorf("Location() = %s, want Asia/Kolkata", loc)
	}

	config.Scheduler.Timezone = "Not/AZone"
	if loc := config.Location(); loc != time.UTC {
		t.Errorf("Location() = %s, want UTC fallback", loc)
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"  production  ", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			config := &Config{Environment: tt.env}
			if got := config.IsProduction(); got != tt.want {
				t.Errorf("IsProduction(%q) = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}
