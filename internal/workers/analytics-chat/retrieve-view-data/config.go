package retrieveviewdata

import "time"

type Config struct {
	// OverFetchFactor multiplies the row limit when filters are present so
	// the in-memory re-filter still has enough rows.
	OverFetchFactor int
	Concurrency     int
	QueryTimeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		OverFetchFactor: 3,
		Concurrency:     8,
		QueryTimeout:    15 * time.Second,
	}
}
