package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	AWS      AWSConfig
	DynamoDB DynamoDBConfig
	Lock     LockConfig
	Schedule ScheduleConfig
	Report   ReportConfig
	Scoring  ScoringConfig
	Log      LogConfig
}

// ServerConfig holds HTTP trigger settings.
type ServerConfig struct {
	Port string
}

// StoreConfig selects the pool store backend: dynamodb, sqlite or memory.
type StoreConfig struct {
	Backend    string
	SQLitePath string `mapstructure:"sqlite_path"`
}

// AWSConfig holds AWS settings.
type AWSConfig struct {
	Region string
}

// DynamoDBConfig names the tables behind the pool.
type DynamoDBConfig struct {
	PoolTable       string `mapstructure:"pool_table"`
	IntentionsTable string `mapstructure:"intentions_table"`
	UsersTable      string `mapstructure:"users_table"`
	SurveyTable     string `mapstructure:"survey_table"`
	MatchesTable    string `mapstructure:"matches_table"`
	LockTable       string `mapstructure:"lock_table"`
}

// LockConfig holds advisory lock settings.
type LockConfig struct {
	Key   string
	Lease time.Duration
}

// ScheduleConfig holds the cycle ticker interval; zero disables it.
type ScheduleConfig struct {
	Interval time.Duration
}

// ReportConfig holds the S3 run-report target; an empty bucket disables it.
type ReportConfig struct {
	Bucket string
	Prefix string
}

// ScoringConfig points at an optional weight table file.
type ScoringConfig struct {
	WeightsFile string `mapstructure:"weights_file"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Verbosity int
}

const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Load reads configuration from file and env. Env var overrides use prefix BATCHMATCH_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("store.backend", BackendDynamoDB)
	v.SetDefault("store.sqlite_path", "batchmatch.db")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("dynamodb.pool_table", "PoolEntries")
	v.SetDefault("dynamodb.intentions_table", "Intentions")
	v.SetDefault("dynamodb.users_table", "Users")
	v.SetDefault("dynamodb.survey_table", "SurveyResponses")
	v.SetDefault("dynamodb.matches_table", "Matches")
	v.SetDefault("dynamodb.lock_table", "BatchLocks")
	v.SetDefault("lock.key", "batch_matching")
	v.SetDefault("lock.lease", "15m")
	v.SetDefault("schedule.interval", "5m")
	v.SetDefault("report.bucket", "")
	v.SetDefault("report.prefix", "batch-runs")
	v.SetDefault("scoring.weights_file", "")
	v.SetDefault("log.verbosity", 0)

	cfgPath := os.Getenv("BATCHMATCH_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("batchmatch")
	}

	v.SetEnvPrefix("BATCHMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values the process cannot start without.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendDynamoDB, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath == "" {
		return errors.New("config: store.sqlite_path is required for the sqlite backend")
	}
	if c.Lock.Key == "" {
		return errors.New("config: lock.key must not be empty")
	}
	if c.Schedule.Interval < 0 {
		return errors.New("config: schedule.interval must not be negative")
	}
	return nil
}
