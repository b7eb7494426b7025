package normalizeentities

import "time"

type Config struct {
	Temperature float64
	MaxTokens   int
	// EnglishRatio is the share of ASCII letters above which a value is
	// treated as already English.
	EnglishRatio float64
	MappingTTL   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Temperature:  0.1,
		MaxTokens:    512,
		EnglishRatio: 0.7,
		MappingTTL:   24 * time.Hour,
	}
}
