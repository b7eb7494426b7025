package chatorchestrator

import "context"

type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// QuestionTheme groups example questions shown to new users.
type QuestionTheme struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Backend    string            `json:"backend"`
	Components map[string]string `json:"components"`
	Sessions   int               `json:"sessions"`
}

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}
