package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Configuration de l'assistant d'orientation.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Fournisseur LLM",
		Items: []string{"openai", "openrouter", "ollama", "anthropic"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Modèle",
		Default: DefaultModel(cfg.Provider),
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Follow-up policy.
	policyPrompt := promptui.Select{
		Label: "Politique de relance",
		Items: []string{
			"plafond strict — jusqu'à N relances par question, pas de reprise",
			"reprise — relances plafonnées puis reprise des questions non résolues",
		},
	}
	policyIdx, _, err := policyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("policy selection: %w", err)
	}
	cfg.Interview.RevisitEnabled = policyIdx == 1

	capPrompt := promptui.Prompt{
		Label:    "Nombre maximal de relances par question",
		Default:  strconv.Itoa(cfg.Interview.MaxFollowups),
		Validate: validateNonNegativeInt,
	}
	capStr, err := capPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max followups: %w", err)
	}
	cfg.Interview.MaxFollowups, _ = strconv.Atoi(capStr)

	// 4. Snapshot store.
	storePrompt := promptui.Select{
		Label: "Stockage des sessions",
		Items: []string{"sqlite", "redis", "memory"},
	}
	_, driverStr, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	cfg.Store.Driver = StoreDriver(driverStr)
	if cfg.Store.Driver == StoreRedis {
		addrPrompt := promptui.Prompt{Label: "Adresse Redis", Default: cfg.Store.RedisAddr}
		if cfg.Store.RedisAddr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: définis %s dans ton environnement (ou dans .env) avant de lancer un entretien.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration enregistrée dans %s\n", path)
	return cfg, nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("nombre entier attendu")
	}
	if n < 0 {
		return fmt.Errorf("doit être positif ou nul")
	}
	return nil
}
