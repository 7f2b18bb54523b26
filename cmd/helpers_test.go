package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/orientation-agent/internal/config"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/logger"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

func writeConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".orientation.yml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Interview.SimilarityThreshold = 2
	writeConfig(t, cfg)

	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "similarity_threshold") {
		t.Errorf("expected threshold error, got %v", err)
	}
}

func TestCreateJSONClientMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.DefaultConfig()

	_, err := createJSONClient(cfg)
	if !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the env var: %v", err)
	}
}

func TestCreateJSONClientOllama(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderOllama
	cfg.Model = "llama3"
	cfg.RateLimitRPM = 30

	if _, err := createJSONClient(cfg); err != nil {
		t.Fatalf("createJSONClient: %v", err)
	}
}

func TestNewInterviewerFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = config.StoreMemory
	writeConfig(t, cfg)

	loaded, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	st, err := openStore(loaded)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("openStore returned %T", st)
	}

	iv, err := newInterviewer(loaded, nil, st, logger.Nop())
	if err != nil {
		t.Fatalf("newInterviewer: %v", err)
	}
	if len(iv.Questions()) == 0 {
		t.Error("default questionnaire is empty")
	}
}

func TestLoadQuestionnaireRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	qpath := filepath.Join(dir, "questions.yml")
	data := "- id: q1\n  text: Pourquoi ?\n  profile_fields: [inexistant]\n"
	if err := os.WriteFile(qpath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Interview.QuestionsFile = qpath

	if _, _, err := loadQuestionnaire(cfg); err == nil {
		t.Error("expected validation error for unknown profile field")
	}
}
