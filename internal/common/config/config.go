package config

import (
	"fmt"
	"time"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	Extraction    ExtractionConfig        `mapstructure:"extraction"`
	Stage         StageConfig             `mapstructure:"stage"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=5 application_name=relationship-engine",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address         string `mapstructure:"address"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	ProfileCacheTTL int    `mapstructure:"profile_cache_ttl"` // seconds
	StateTTL        int    `mapstructure:"state_ttl"`         // seconds, 0 = keep forever
	PoolSize        int    `mapstructure:"pool_size"`
}

// ProvidersConfig holds the two hosted language models used for extraction.
// Gemini is primary; OpenAI is only used when Gemini has no key.
type ProvidersConfig struct {
	Gemini ProviderConfig `mapstructure:"gemini"`
	OpenAI ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

type ExtractionConfig struct {
	Timeout int `mapstructure:"timeout"` // milliseconds
}

func (e ExtractionConfig) TimeoutDuration() time.Duration {
	return time.Duration(e.Timeout) * time.Millisecond
}

// StageConfig calibrates relationship depth and stage thresholds.
type StageConfig struct {
	BaseDelta           float64 `mapstructure:"base_delta"`
	MaxDelta            int     `mapstructure:"max_delta"`
	IdentityWeight      float64 `mapstructure:"identity_weight"`
	InterestWeight      float64 `mapstructure:"interest_weight"`
	InterestCap         float64 `mapstructure:"interest_cap"`
	PlanningWeight      float64 `mapstructure:"planning_weight"`
	PlanDetailWeight    float64 `mapstructure:"plan_detail_weight"`
	GettingToKnowDepth  int     `mapstructure:"getting_to_know_depth"`
	GettingToKnowRounds int     `mapstructure:"getting_to_know_rounds"`
	FamiliarDepth       int     `mapstructure:"familiar_depth"`
	FamiliarRounds      int     `mapstructure:"familiar_rounds"`
	FriendDepth         int     `mapstructure:"friend_depth"`
	FriendRounds        int     `mapstructure:"friend_rounds"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NotificationConfig controls stage-transition publishing.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}
