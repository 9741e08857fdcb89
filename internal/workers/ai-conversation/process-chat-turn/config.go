// internal/workers/ai-conversation/process-chat-turn/config.go
package processchatturn

import "time"

type Config struct {
	// Timeout bounds the whole turn, including the provider round trip.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
