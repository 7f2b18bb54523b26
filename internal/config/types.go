package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
	ProviderAnthropic  ProviderType = "anthropic"
)

// StoreDriver selects where session snapshots are persisted.
type StoreDriver string

const (
	StoreSQLite StoreDriver = "sqlite"
	StoreRedis  StoreDriver = "redis"
	StoreMemory StoreDriver = "memory"
)

// Config is the top-level configuration, corresponding to .orientation.yml.
type Config struct {
	Provider              ProviderType    `yaml:"provider" koanf:"provider"`
	Model                 string          `yaml:"model" koanf:"model"`
	BaseURL               string          `yaml:"base_url" koanf:"base_url"`
	Temperature           float64         `yaml:"temperature" koanf:"temperature"`
	MaxTokens             int             `yaml:"max_tokens" koanf:"max_tokens"`
	RequestTimeoutSeconds int             `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	RateLimitRPM          int             `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	HistoryWindowChars    int             `yaml:"history_window_chars" koanf:"history_window_chars"`
	SummaryWindowChars    int             `yaml:"summary_window_chars" koanf:"summary_window_chars"`
	AppVersion            string          `yaml:"app_version" koanf:"app_version"`
	Interview             InterviewConfig `yaml:"interview" koanf:"interview"`
	Store                 StoreConfig     `yaml:"store" koanf:"store"`
	Server                ServerConfig    `yaml:"server" koanf:"server"`
	Log                   LogConfig       `yaml:"log" koanf:"log"`
}

// InterviewConfig holds the follow-up policy and the data files the
// interview is built from. Empty file paths select the embedded defaults.
type InterviewConfig struct {
	QuestionsFile           string  `yaml:"questions_file" koanf:"questions_file"`
	ProfileTemplateFile     string  `yaml:"profile_template_file" koanf:"profile_template_file"`
	MaxFollowups            int     `yaml:"max_followups" koanf:"max_followups"`
	RevisitEnabled          bool    `yaml:"revisit_enabled" koanf:"revisit_enabled"`
	SubstituteEmptyFollowup bool    `yaml:"substitute_empty_followup" koanf:"substitute_empty_followup"`
	SimilarityThreshold     float64 `yaml:"similarity_threshold" koanf:"similarity_threshold"`
	ExtractionEnabled       bool    `yaml:"extraction_enabled" koanf:"extraction_enabled"`
	// ModelFinishEnds lets a "finish" verdict from the model end the
	// interview; otherwise it only moves to the next question.
	ModelFinishEnds bool `yaml:"model_finish_ends" koanf:"model_finish_ends"`
}

// StoreConfig holds snapshot persistence settings.
type StoreConfig struct {
	Driver        StoreDriver `yaml:"driver" koanf:"driver"`
	Path          string      `yaml:"path" koanf:"path"`
	RedisAddr     string      `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword string      `yaml:"redis_password,omitempty" koanf:"redis_password"`
	RedisDB       int         `yaml:"redis_db" koanf:"redis_db"`
	TTLMinutes    int         `yaml:"ttl_minutes" koanf:"ttl_minutes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode string `yaml:"mode" koanf:"mode"`
}
