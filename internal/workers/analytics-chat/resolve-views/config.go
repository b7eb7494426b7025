package resolveviews

type Config struct {
	MaxViews     int
	DefaultLimit int
	MinLimit     int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		MaxViews:     3,
		DefaultLimit: 20,
		MinLimit:     1,
		MaxLimit:     100,
	}
}
