package retrieveknowledge

type Config struct {
	KeywordTemperature float64
	KeywordMaxTokens   int

	TopK      int
	Threshold float64
	// TextKeywords caps how many keywords reach the text search.
	TextKeywords   int
	TextSimilarity float64
	DedupeChars    int

	AnswerTemperature float64
	AnswerMaxTokens   int
	MinAnswerChars    int

	ChunkSize     int
	ChunkOverlap  int
	MarkdownChunk int
}

func LoadConfig() *Config {
	return &Config{
		KeywordTemperature: 0.1,
		KeywordMaxTokens:   100,
		TopK:               5,
		Threshold:          0.5,
		TextKeywords:       5,
		TextSimilarity:     0.9,
		DedupeChars:        100,
		AnswerTemperature:  0.5,
		AnswerMaxTokens:    2048,
		MinAnswerChars:     20,
		ChunkSize:          500,
		ChunkOverlap:       50,
		MarkdownChunk:      800,
	}
}
