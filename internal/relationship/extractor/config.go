package extractor

import (
	"time"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
)

type Config struct {
	// Timeout bounds one provider round trip. Zero leaves only the caller's
	// deadline.
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func LoadConfig(cfg config.ExtractionConfig) *Config {
	return &Config{
		Timeout:   cfg.TimeoutDuration(),
		MaxTokens: 512,
	}
}
