package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the batch matching daemon.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	S3       S3Config
	Sentry   SentryConfig
	Pipeline PipelineConfig
}

// ServerConfig controls the ambient /healthz and /status liveness server.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// S3Config holds the object-storage configuration used to fetch the day's
// job CSV when JOB_CSV_SOURCE=s3.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// SentryConfig holds error-reporting configuration.
type SentryConfig struct {
	DSN         string
	Environment string
}

// PipelineConfig holds every tunable of spec §6.3.
type PipelineConfig struct {
	BatchSize            int
	WorkersIngest        int
	WorkersProfile       int
	WorkersScore         int
	WorkersMatch         int
	TopK                 int
	SectionQuotas        SectionQuotas
	FeeMin               int
	ValidEmploymentTypes []int
	RecentWindowDays     int
	PopularityWindowDays int
	ProfileWindowDays    int
	NewWindowDays        int
	InactiveGraceDays    int
	SoftDeadlines        SoftDeadlines
	HardDeadline         time.Duration
	CSVSource            string // "local" or "s3"
	CSVPath              string
}

// SectionQuotas is the fixed per-user allocation in §4.G.
type SectionQuotas struct {
	EditorialPicks int `yaml:"editorial_picks"`
	Top5           int `yaml:"top5"`
	Regional       int `yaml:"regional"`
	Nearby         int `yaml:"nearby"`
	HighIncome     int `yaml:"high_income"`
	New            int `yaml:"new"`
}

// Total returns the sum of all section quotas (40 by default).
func (q SectionQuotas) Total() int {
	return q.EditorialPicks + q.Top5 + q.Regional + q.Nearby + q.HighIncome + q.New
}

// SoftDeadlines are the per-stage soft deadlines of §5; missing one logs a
// warning but does not abort the run.
type SoftDeadlines struct {
	Ingest     time.Duration `yaml:"ingest_seconds"`
	Popularity time.Duration `yaml:"popularity_seconds"`
	Profile    time.Duration `yaml:"profile_seconds"`
	Scorer     time.Duration `yaml:"scorer_seconds"`
	Match      time.Duration `yaml:"match_seconds"`
}

// pipelineFileOverrides mirrors the nested shape of spec §6.3 that does not
// translate cleanly into flat env vars (quotas, per-stage deadlines). It is
// loaded from an optional YAML file so operators can version it alongside
// the rest of the run configuration.
type pipelineFileOverrides struct {
	SectionQuotas *SectionQuotas `yaml:"section_quotas"`
	SoftDeadlines *struct {
		IngestSeconds     *int `yaml:"ingest_seconds"`
		PopularitySeconds *int `yaml:"popularity_seconds"`
		ProfileSeconds    *int `yaml:"profile_seconds"`
		ScorerSeconds     *int `yaml:"scorer_seconds"`
		MatchSeconds      *int `yaml:"match_seconds"`
	} `yaml:"soft_deadlines_seconds"`
}

// Load reads configuration from environment variables, then layers an
// optional YAML file (PIPELINE_CONFIG_FILE) on top for the nested fields
// env vars don't express well.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8089"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "matchday"),
			Password:        getEnv("DB_PASSWORD", "matchday"),
			DBName:          getEnv("DB_NAME", "matchday"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "ap-northeast-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", getEnv("SERVER_ENV", "development")),
		},
		Pipeline: PipelineConfig{
			BatchSize:            getEnvAsInt("BATCH_SIZE", 1000),
			WorkersIngest:        getEnvAsInt("WORKERS_INGEST", 4),
			WorkersProfile:       getEnvAsInt("WORKERS_PROFILE", 8),
			WorkersScore:         getEnvAsInt("WORKERS_SCORE", 8),
			WorkersMatch:         getEnvAsInt("WORKERS_MATCH", 8),
			TopK:                 getEnvAsInt("TOP_K", 200),
			SectionQuotas:        SectionQuotas{EditorialPicks: 5, Top5: 5, Regional: 10, Nearby: 8, HighIncome: 7, New: 5},
			FeeMin:               getEnvAsInt("FEE_MIN", 500),
			ValidEmploymentTypes: []int{1, 3, 6, 8},
			RecentWindowDays:     getEnvAsInt("RECENT_WINDOW_DAYS", 14),
			PopularityWindowDays: getEnvAsInt("POPULARITY_WINDOW_DAYS", 360),
			ProfileWindowDays:    getEnvAsInt("PROFILE_WINDOW_DAYS", 180),
			NewWindowDays:        getEnvAsInt("NEW_WINDOW_DAYS", 7),
			InactiveGraceDays:    getEnvAsInt("INACTIVE_GRACE_DAYS", 7),
			SoftDeadlines: SoftDeadlines{
				Ingest:     getEnvAsDuration("SOFT_DEADLINE_INGEST", 10*time.Minute),
				Popularity: getEnvAsDuration("SOFT_DEADLINE_POPULARITY", 3*time.Minute),
				Profile:    getEnvAsDuration("SOFT_DEADLINE_PROFILE", 5*time.Minute),
				Scorer:     getEnvAsDuration("SOFT_DEADLINE_SCORER", 10*time.Minute),
				Match:      getEnvAsDuration("SOFT_DEADLINE_MATCH", 15*time.Minute),
			},
			HardDeadline: getEnvAsDuration("HARD_DEADLINE", 30*time.Minute),
			CSVSource:    getEnv("JOB_CSV_SOURCE", "local"),
			CSVPath:      getEnv("JOB_CSV_PATH", ""),
		},
	}

	if path := os.Getenv("PIPELINE_CONFIG_FILE"); path != "" {
		if err := applyPipelineFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading pipeline config file: %w", err)
		}
	}

	if cfg.Pipeline.SectionQuotas.Total() != 40 {
		return nil, fmt.Errorf("section quotas must sum to 40, got %d", cfg.Pipeline.SectionQuotas.Total())
	}

	return cfg, nil
}

func applyPipelineFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overrides pipelineFileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	if overrides.SectionQuotas != nil {
		cfg.Pipeline.SectionQuotas = *overrides.SectionQuotas
	}
	if d := overrides.SoftDeadlines; d != nil {
		if d.IngestSeconds != nil {
			cfg.Pipeline.SoftDeadlines.Ingest = time.Duration(*d.IngestSeconds) * time.Second
		}
		if d.PopularitySeconds != nil {
			cfg.Pipeline.SoftDeadlines.Popularity = time.Duration(*d.PopularitySeconds) * time.Second
		}
		if d.ProfileSeconds != nil {
			cfg.Pipeline.SoftDeadlines.Profile = time.Duration(*d.ProfileSeconds) * time.Second
		}
		if d.ScorerSeconds != nil {
			cfg.Pipeline.SoftDeadlines.Scorer = time.Duration(*d.ScorerSeconds) * time.Second
		}
		if d.MatchSeconds != nil {
			cfg.Pipeline.SoftDeadlines.Match = time.Duration(*d.MatchSeconds) * time.Second
		}
	}

	return nil
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Addr returns the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
