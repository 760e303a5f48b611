package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"artfactory/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSslMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers           []string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderChangedTopic string   `mapstructure:"KAFKA_ORDER_CHANGED_TOPIC"`

	FalKey            string `mapstructure:"FAL_KEY"`
	ReplicateAPIToken string `mapstructure:"REPLICATE_API_TOKEN"`
	CivitaiAPIToken   string `mapstructure:"CIVITAI_API_TOKEN"`

	WorkerCount        int           `mapstructure:"WORKER_COUNT"`
	WorkerPollInterval time.Duration `mapstructure:"WORKER_POLL_INTERVAL"`
	WorkerBatchSize    int           `mapstructure:"WORKER_BATCH_SIZE"`
	ForemanInterval    time.Duration `mapstructure:"FOREMAN_INTERVAL"`
	HeartbeatThreshold time.Duration `mapstructure:"HEARTBEAT_THRESHOLD"`
	ClaimTimeout       time.Duration `mapstructure:"CLAIM_TIMEOUT"`
	GenerationTimeout  time.Duration `mapstructure:"GENERATION_TIMEOUT"`
	MaxAttempts        int           `mapstructure:"MAX_ATTEMPTS"`

	MachineCatalogFile string `mapstructure:"MACHINE_CATALOG_FILE"`
	AuthJWTSecret      string `mapstructure:"AUTH_JWT_SECRET"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"HTTP_PORT":                 "8080",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "postgres",
	"DB_PASSWORD":               "",
	"DB_NAME":                   "artfactory",
	"DB_SSLMODE":                "disable",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"KAFKA_BROKERS":             "",
	"KAFKA_ORDER_CHANGED_TOPIC": "order.changed",
	"FAL_KEY":                   "",
	"REPLICATE_API_TOKEN":       "",
	"CIVITAI_API_TOKEN":         "",
	"WORKER_COUNT":              2,
	"WORKER_POLL_INTERVAL":      "2s",
	"WORKER_BATCH_SIZE":         5,
	"FOREMAN_INTERVAL":          "15s",
	"HEARTBEAT_THRESHOLD":       "30s",
	"CLAIM_TIMEOUT":             "15m",
	"GENERATION_TIMEOUT":        "10m",
	"MAX_ATTEMPTS":              3,
	"MACHINE_CATALOG_FILE":      "",
	"AUTH_JWT_SECRET":           "",
	"LOG_LEVEL":                 "info",
}

// LoadConfig reads the environment, after loading envFile into it when the
// file exists. Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the application cannot start without.
func (c Config) Validate() error {
	var problems []error
	if c.HTTPPort == "" {
		problems = append(problems, errs.NewValueIsRequiredError("HTTP_PORT"))
	}
	if c.DBHost == "" {
		problems = append(problems, errs.NewValueIsRequiredError("DB_HOST"))
	}
	if c.DBName == "" {
		problems = append(problems, errs.NewValueIsRequiredError("DB_NAME"))
	}
	if c.WorkerCount < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("WORKER_COUNT", c.WorkerCount, 0, "unbounded"))
	}
	if c.WorkerBatchSize < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("WORKER_BATCH_SIZE", c.WorkerBatchSize, 1, "unbounded"))
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("MAX_ATTEMPTS", c.MaxAttempts, 1, "unbounded"))
	}
	for name, d := range map[string]time.Duration{
		"WORKER_POLL_INTERVAL": c.WorkerPollInterval,
		"FOREMAN_INTERVAL":     c.ForemanInterval,
		"HEARTBEAT_THRESHOLD":  c.HeartbeatThreshold,
		"CLAIM_TIMEOUT":        c.ClaimTimeout,
		"GENERATION_TIMEOUT":   c.GenerationTimeout,
	} {
		if d <= 0 {
			problems = append(problems, errs.NewValueIsOutOfRangeError(name, d, "1ns", "unbounded"))
		}
	}
	if c.WorkerPollInterval > 0 && c.HeartbeatThreshold > 0 && c.HeartbeatThreshold <= c.WorkerPollInterval {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("HEARTBEAT_THRESHOLD",
			fmt.Errorf("must be longer than WORKER_POLL_INTERVAL (%s)", c.WorkerPollInterval)))
	}
	return errors.Join(problems...)
}

// DatabaseURL is the postgres:// URL used by both GORM and the migrations.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.DBSslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// HeartbeatBeatInterval is how often a busy worker refreshes its heartbeat.
// A third of the threshold leaves room for two missed beats.
func (c Config) HeartbeatBeatInterval() time.Duration {
	return c.HeartbeatThreshold / 3
}

// HeartbeatTTL bounds how long a dead worker's heartbeat outlives it in Redis.
func (c Config) HeartbeatTTL() time.Duration {
	return 10 * c.HeartbeatThreshold
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
