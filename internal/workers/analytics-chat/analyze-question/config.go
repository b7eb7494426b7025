package analyzequestion

import "analytics-chat/pkg/registry"

type Config struct {
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	DefaultLimit int
	MinLimit     int
	MaxLimit     int
	// DefaultView is used by the deterministic fallback analysis.
	DefaultView string
}

func LoadConfig() *Config {
	return &Config{
		Temperature:  0.1,
		MaxTokens:    1024,
		MaxRetries:   2,
		DefaultLimit: 20,
		MinLimit:     1,
		MaxLimit:     100,
		DefaultView:  registry.ViewCurrentTrending,
	}
}
