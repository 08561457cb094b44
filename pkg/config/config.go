// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sink targets for the finished tables
const (
	SinkNone      = "none"
	SinkPostgres  = "postgres"
	SinkSnowflake = "snowflake"
)

// Config represents the application configuration
type Config struct {
	Fetch    *FetchConfig
	Pipeline *PipelineConfig
	Output   *OutputConfig

	// Sink settings; only the selected sink is loaded
	SinkTarget string
	Snowflake  *SnowflakeConfig
	Postgres   *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// FetchConfig holds the settings of the job-search API client
type FetchConfig struct {
	AppID             string
	AppKey            string
	BaseURL           string
	Country           string
	Where             string
	MaxPages          int
	ResultsPerPage    int
	PageDelay         time.Duration
	RateLimitCooldown time.Duration
	Timeout           time.Duration
}

// PipelineConfig holds the enrichment settings
type PipelineConfig struct {
	MinReasonableSalary float64
	MaxReasonableSalary float64
	OutlierMethod       string
	OutlierFactor       float64
	MinRequiredSamples  int
	ScaleFactor         float64
	ReclampSynthetic    bool
	RandomSeed          uint64
	WorkerPoolSize      int
	BenchmarkFile       string
	RecordCleaning      bool
}

// OutputConfig holds file and table destinations
type OutputConfig struct {
	Dir             string
	StatsCSV        string
	AdjustedCSV     string
	AdjustedXLSX    string
	MetricsTextfile string
	StatsTable      string
	AdjustedTable   string
}

// LoadConfig loads configuration from the environment, reading a .env file
// first when one is present
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Fetch: &FetchConfig{
			AppID:             os.Getenv("ADZUNA_APP_ID"),
			AppKey:            os.Getenv("ADZUNA_APP_KEY"),
			BaseURL:           getEnv("ADZUNA_BASE_URL", "https://api.adzuna.com/v1/api/jobs"),
			Country:           getEnv("ADZUNA_COUNTRY", "au"),
			Where:             getEnv("ADZUNA_WHERE", "Australia"),
			MaxPages:          getEnvAsInt("FETCH_MAX_PAGES", 4),
			ResultsPerPage:    getEnvAsInt("FETCH_RESULTS_PER_PAGE", 50),
			PageDelay:         time.Duration(getEnvAsInt("FETCH_PAGE_DELAY_MS", 1500)) * time.Millisecond,
			RateLimitCooldown: time.Duration(getEnvAsInt("FETCH_RATE_LIMIT_COOLDOWN_MS", 5000)) * time.Millisecond,
			Timeout:           time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Pipeline: &PipelineConfig{
			MinReasonableSalary: getEnvAsFloat("MIN_REASONABLE_SALARY", 30000),
			MaxReasonableSalary: getEnvAsFloat("MAX_REASONABLE_SALARY", 500000),
			OutlierMethod:       getEnv("OUTLIER_METHOD", "iqr"),
			OutlierFactor:       getEnvAsFloat("OUTLIER_FACTOR", 2.0),
			MinRequiredSamples:  getEnvAsInt("MIN_REQUIRED_SAMPLES", 30),
			ScaleFactor:         getEnvAsFloat("COMPANY_SCALE_FACTOR", 0.607),
			ReclampSynthetic:    getEnvAsBool("RECLAMP_SYNTHETIC", true),
			RandomSeed:          uint64(getEnvAsInt("RANDOM_SEED", 0)), // 0 means time based
			WorkerPoolSize:      getEnvAsInt("WORKER_POOL_SIZE", 1),
			BenchmarkFile:       getEnv("BENCHMARK_FILE", ""),
			RecordCleaning:      getEnvAsBool("RECORD_CLEANING", false),
		},
		Output: &OutputConfig{
			Dir:             getEnv("OUTPUT_DIR", "."),
			StatsCSV:        getEnv("STATS_CSV", "australian_salary_data_complete.csv"),
			AdjustedCSV:     getEnv("ADJUSTED_CSV", "australian_salary_tableau_ready.csv"),
			AdjustedXLSX:    getEnv("ADJUSTED_XLSX", ""),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
			StatsTable:      getEnv("STATS_TABLE", "salary_stats"),
			AdjustedTable:   getEnv("ADJUSTED_TABLE", "salary_adjusted"),
		},
		SinkTarget: strings.ToLower(getEnv("SINK_TARGET", SinkNone)),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}

	// Load database configuration for the selected sink only
	switch cfg.SinkTarget {
	case SinkPostgres:
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	case SinkSnowflake:
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Fetch == nil || c.Pipeline == nil || c.Output == nil {
		return errors.New("fetch, pipeline and output configuration are required")
	}

	switch c.SinkTarget {
	case SinkNone:
	case SinkPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case SinkSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	default:
		return fmt.Errorf("unknown sink target %q", c.SinkTarget)
	}

	p := c.Pipeline
	if p.MinRequiredSamples <= 0 {
		return errors.New("minimum required samples must be positive")
	}
	if p.MinReasonableSalary > p.MaxReasonableSalary {
		return errors.New("minimum reasonable salary exceeds maximum")
	}
	if p.ScaleFactor <= 0 {
		return errors.New("company scale factor must be positive")
	}
	if p.OutlierFactor <= 0 {
		return errors.New("outlier factor must be positive")
	}
	switch strings.ToLower(p.OutlierMethod) {
	case "iqr", "zscore", "z-score":
	default:
		return fmt.Errorf("unknown outlier method %q", p.OutlierMethod)
	}
	if p.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	if c.Fetch.MaxPages < 0 {
		return errors.New("max pages cannot be negative")
	}
	if c.Fetch.ResultsPerPage <= 0 {
		return errors.New("results per page must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
