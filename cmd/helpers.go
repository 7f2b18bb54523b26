package cmd

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/orientation-agent/internal/config"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/logger"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `orientation init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces the dev encoder.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	mode := cfg.Log.Mode
	if verbose {
		mode = "dev"
	}
	return logger.New(mode)
}

// createJSONClient wires the configured provider, the optional rate limit
// and the request timeout into a JSON client.
func createJSONClient(cfg *config.Config) (*llm.JSONClient, error) {
	provider, err := llm.NewProvider(llm.ProviderOptions{
		Type:    string(cfg.Provider),
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		if envVar := config.APIKeyEnvVar(cfg.Provider); envVar != "" {
			return nil, fmt.Errorf("creating %s provider (set %s): %w", cfg.Provider, envVar, err)
		}
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
	}
	return llm.NewJSONClient(provider, llm.JSONClientConfig{
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		MaxTokens:         cfg.MaxTokens,
		Timeout:           time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.RateLimitRPM,
	}), nil
}

// openStore opens the configured snapshot store.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.Open(cfg.Store, cfg.AppVersion)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	return st, nil
}

// loadQuestionnaire loads the question list and profile template and checks
// that every question maps onto the template.
func loadQuestionnaire(cfg *config.Config) ([]questions.Question, map[string]any, error) {
	qs, err := questions.Load(cfg.Interview.QuestionsFile)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := questions.LoadTemplate(cfg.Interview.ProfileTemplateFile)
	if err != nil {
		return nil, nil, err
	}
	if err := questions.Validate(qs, tmpl); err != nil {
		return nil, nil, fmt.Errorf("invalid questionnaire: %w", err)
	}
	return qs, tmpl, nil
}

// newInterviewer assembles an Interviewer persisting into st.
func newInterviewer(cfg *config.Config, client interview.Completer, st store.Store, log *logger.Logger) (*interview.Interviewer, error) {
	qs, tmpl, err := loadQuestionnaire(cfg)
	if err != nil {
		return nil, err
	}
	return interview.New(interview.Options{
		Questions: qs,
		Template:  tmpl,
		Client:    client,
		Policy: interview.Policy{
			MaxFollowups:            cfg.Interview.MaxFollowups,
			RevisitEnabled:          cfg.Interview.RevisitEnabled,
			SubstituteEmptyFollowup: cfg.Interview.SubstituteEmptyFollowup,
			SimilarityThreshold:     cfg.Interview.SimilarityThreshold,
			ModelFinishEnds:         cfg.Interview.ModelFinishEnds,
		},
		ExtractionEnabled:  cfg.Interview.ExtractionEnabled,
		HistoryWindowChars: cfg.HistoryWindowChars,
		SummaryWindowChars: cfg.SummaryWindowChars,
		AppVersion:         cfg.AppVersion,
		Store:              st,
		Logger:             log,
	}), nil
}
