package generatesuggestions

type Config struct {
	Temperature  float64
	MaxTokens    int
	SummaryChars int
	MaxQuestions int
	MaxInsights  int
	MaxRelated   int
}

func LoadConfig() *Config {
	return &Config{
		Temperature:  0.5,
		MaxTokens:    512,
		SummaryChars: 300,
		MaxQuestions: 5,
		MaxInsights:  3,
		MaxRelated:   3,
	}
}
