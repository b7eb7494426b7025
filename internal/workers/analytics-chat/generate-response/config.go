package generateresponse

type Config struct {
	Temperature       float64
	MaxTokens         int
	NoDataTemperature float64
	NoDataMaxTokens   int
	SampleRows        int
	// SampleBytes caps the JSON sample per view; rows are halved until it fits.
	SampleBytes int
}

func LoadConfig() *Config {
	return &Config{
		Temperature:       0.1,
		MaxTokens:         2048,
		NoDataTemperature: 0.3,
		NoDataMaxTokens:   1024,
		SampleRows:        20,
		SampleBytes:       16 * 1024,
	}
}
