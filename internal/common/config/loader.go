package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setStageDefaults(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single yaml file, with the same env handling as Load.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setStageDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the conventional env var names when
// the config file left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Providers.Gemini.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.Providers.Gemini.APIKey = val
				break
			}
		}
	}
	if cfg.Providers.OpenAI.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Providers.OpenAI.APIKey = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Notifications.SNS.TopicARN == "" {
		if val := os.Getenv("STAGE_TOPIC_ARN"); val != "" {
			cfg.Notifications.SNS.TopicARN = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "relationship-engine"
	}
	if cfg.App.MetricsAddr == "" {
		cfg.App.MetricsAddr = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.ProfileCacheTTL == 0 {
		cfg.Database.Redis.ProfileCacheTTL = 300
	}

	if cfg.Providers.Gemini.Model == "" {
		cfg.Providers.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Providers.Gemini.BaseURL == "" {
		cfg.Providers.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Providers.OpenAI.Model == "" {
		cfg.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.Gemini.MaxTokens == 0 {
		cfg.Providers.Gemini.MaxTokens = 512
	}
	if cfg.Providers.OpenAI.MaxTokens == 0 {
		cfg.Providers.OpenAI.MaxTokens = 512
	}

	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 8000
	}

	ApplyStageDefaults(&cfg.Stage)

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Notifications.SNS.Region == "" {
		cfg.Notifications.SNS.Region = "ap-northeast-1"
	}
}

// DefaultStageConfig is the stock depth calibration.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		BaseDelta:           2,
		MaxDelta:            10,
		IdentityWeight:      4,
		InterestWeight:      2,
		InterestCap:         4,
		PlanningWeight:      2,
		PlanDetailWeight:    1,
		GettingToKnowDepth:  15,
		GettingToKnowRounds: 3,
		FamiliarDepth:       50,
		FamiliarRounds:      8,
		FriendDepth:         120,
		FriendRounds:        20,
	}
}

// setStageDefaults registers the calibration defaults with viper so that
// only keys absent from the file fall back; an explicit 0 weight is kept.
func setStageDefaults(v *viper.Viper) {
	d := DefaultStageConfig()
	v.SetDefault("stage.base_delta", d.BaseDelta)
	v.SetDefault("stage.max_delta", d.MaxDelta)
	v.SetDefault("stage.identity_weight", d.IdentityWeight)
	v.SetDefault("stage.interest_weight", d.InterestWeight)
	v.SetDefault("stage.interest_cap", d.InterestCap)
	v.SetDefault("stage.planning_weight", d.PlanningWeight)
	v.SetDefault("stage.plan_detail_weight", d.PlanDetailWeight)
	v.SetDefault("stage.getting_to_know_depth", d.GettingToKnowDepth)
	v.SetDefault("stage.getting_to_know_rounds", d.GettingToKnowRounds)
	v.SetDefault("stage.familiar_depth", d.FamiliarDepth)
	v.SetDefault("stage.familiar_rounds", d.FamiliarRounds)
	v.SetDefault("stage.friend_depth", d.FriendDepth)
	v.SetDefault("stage.friend_rounds", d.FriendRounds)
}

// ApplyStageDefaults fills zero base/max deltas and stage thresholds, where
// zero is never a usable value. Weights are left alone: 0 turns a signal off.
func ApplyStageDefaults(s *StageConfig) {
	d := DefaultStageConfig()
	if s.BaseDelta == 0 {
		s.BaseDelta = d.BaseDelta
	}
	if s.MaxDelta == 0 {
		s.MaxDelta = d.MaxDelta
	}
	if s.GettingToKnowDepth == 0 {
		s.GettingToKnowDepth = d.GettingToKnowDepth
	}
	if s.GettingToKnowRounds == 0 {
		s.GettingToKnowRounds = d.GettingToKnowRounds
	}
	if s.FamiliarDepth == 0 {
		s.FamiliarDepth = d.FamiliarDepth
	}
	if s.FamiliarRounds == 0 {
		s.FamiliarRounds = d.FamiliarRounds
	}
	if s.FriendDepth == 0 {
		s.FriendDepth = d.FriendDepth
	}
	if s.FriendRounds == 0 {
		s.FriendRounds = d.FriendRounds
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Extraction.Timeout < 0 {
		return fmt.Errorf("extraction.timeout must be positive")
	}
	if err := ValidateStage(cfg.Stage); err != nil {
		return err
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	return nil
}

// ValidateStage rejects calibrations whose thresholds are not strictly
// increasing, which would let a later stage be reached before an earlier one.
func ValidateStage(s StageConfig) error {
	if s.BaseDelta <= 0 {
		return fmt.Errorf("stage.base_delta must be positive")
	}
	if s.MaxDelta < int(s.BaseDelta) {
		return fmt.Errorf("stage.max_delta must be >= stage.base_delta")
	}
	for name, w := range map[string]float64{
		"identity_weight":    s.IdentityWeight,
		"interest_weight":    s.InterestWeight,
		"interest_cap":       s.InterestCap,
		"planning_weight":    s.PlanningWeight,
		"plan_detail_weight": s.PlanDetailWeight,
	} {
		if w < 0 {
			return fmt.Errorf("stage.%s must not be negative", name)
		}
	}
	if !(s.GettingToKnowDepth < s.FamiliarDepth && s.FamiliarDepth < s.FriendDepth) {
		return fmt.Errorf("stage depth thresholds must be strictly increasing")
	}
	if !(s.GettingToKnowRounds <= s.FamiliarRounds && s.FamiliarRounds <= s.FriendRounds) {
		return fmt.Errorf("stage round gates must be non-decreasing")
	}
	return nil
}
