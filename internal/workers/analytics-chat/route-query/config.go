package routequery

type Config struct {
	Temperature float64
	MaxTokens   int
	// Confidence reported for a classified route and for the failure default.
	Confidence         float64
	FallbackConfidence float64
}

func LoadConfig() *Config {
	return &Config{
		Temperature:        0.1,
		MaxTokens:          20,
		Confidence:         0.85,
		FallbackConfidence: 0.5,
	}
}
