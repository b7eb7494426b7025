package analyzestatistics

type Config struct {
	// DeepAnalysisMinRows: correlations and anomalies need more rows than this.
	DeepAnalysisMinRows int
	CorrelationMinPairs int
	CorrelationCutoff   float64
	MaxCorrelations     int
	AnomalyZ            float64
	MaxAnomalies        int
}

func LoadConfig() *Config {
	return &Config{
		DeepAnalysisMinRows: 3,
		CorrelationMinPairs: 3,
		CorrelationCutoff:   0.7,
		MaxCorrelations:     2,
		AnomalyZ:            2.5,
		MaxAnomalies:        3,
	}
}
