// internal/common/config/config.go
package config

import "fmt"

type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	URL            string   `mapstructure:"url"`
	KnowledgeIndex string   `mapstructure:"knowledge_index"`
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

func (e ElasticsearchConfig) Enabled() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LLMConfig selects and tunes the language-model backend.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"` // ollama | anthropic | openai
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed_model"`
	// EmbedBaseURL is an Ollama endpoint for embeddings when the chat
	// provider is not Ollama.
	EmbedBaseURL string `mapstructure:"embed_base_url"`
	Timeout      int    `mapstructure:"timeout"`     // milliseconds
	MaxRetries   int    `mapstructure:"max_retries"` // validator-gated retries
	RetryDelay   int    `mapstructure:"retry_delay"` // milliseconds
}

type PipelineConfig struct {
	HistorySize          int     `mapstructure:"history_size"`
	MaxSessions          int     `mapstructure:"max_sessions"`
	MaxSessionMessages   int     `mapstructure:"max_session_messages"`
	SessionIdleTTL       int     `mapstructure:"session_idle_ttl"`   // milliseconds
	SchemaCacheTTL       int     `mapstructure:"schema_cache_ttl"`   // milliseconds
	SnapshotCacheTTL     int     `mapstructure:"snapshot_cache_ttl"` // milliseconds
	CacheBackend         string  `mapstructure:"cache_backend"`      // memory | redis
	MaxViews             int     `mapstructure:"max_views"`
	DefaultLimit         int     `mapstructure:"default_limit"`
	RetrievalConcurrency int     `mapstructure:"retrieval_concurrency"`
	KnowledgeTopK        int     `mapstructure:"knowledge_top_k"`
	KnowledgeThreshold   float64 `mapstructure:"knowledge_threshold"`
	PersistHistory       bool    `mapstructure:"persist_history"`
	RegistryPath         string  `mapstructure:"registry_path"`
}

type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
