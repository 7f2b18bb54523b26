package config

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOllama:     "llama3",
	ProviderAnthropic:  "claude-haiku-4-5-20251001",
}

// DefaultConfig returns a Config with sensible defaults. The follow-up policy
// defaults to the hard-cap variant: four follow-ups per question and no
// revisit pass.
func DefaultConfig() *Config {
	return &Config{
		Provider:              ProviderOpenAI,
		Model:                 defaultModels[ProviderOpenAI],
		Temperature:           0,
		MaxTokens:             800,
		RequestTimeoutSeconds: 60,
		HistoryWindowChars:    1800,
		SummaryWindowChars:    4000,
		AppVersion:            "v1",
		Interview: InterviewConfig{
			MaxFollowups:            4,
			RevisitEnabled:          false,
			SubstituteEmptyFollowup: true,
			SimilarityThreshold:     0.78,
			ExtractionEnabled:       true,
		},
		Store: StoreConfig{
			Driver:     StoreSQLite,
			Path:       ".orientation/sessions.db",
			RedisAddr:  "localhost:6379",
			TTLMinutes: 24 * 60,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func DefaultModel(p ProviderType) string {
	return defaultModels[p]
}
