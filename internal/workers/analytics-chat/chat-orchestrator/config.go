package chatorchestrator

import "time"

type Config struct {
	MaxSessions        int
	MaxSessionMessages int
	SessionIdleTTL     time.Duration

	ConversationTemperature float64
	ConversationMaxTokens   int
	// ConversationHistory is how many recent messages feed a small-talk reply.
	ConversationHistory int
	LastTurnChars       int

	RequestTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxSessions:             1000,
		MaxSessionMessages:      20,
		SessionIdleTTL:          6 * time.Hour,
		ConversationTemperature: 0.7,
		ConversationMaxTokens:   512,
		ConversationHistory:     4,
		LastTurnChars:           200,
		RequestTimeout:          3 * time.Minute,
	}
}
