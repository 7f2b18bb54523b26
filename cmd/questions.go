package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List and validate the configured questionnaire",
	Long:  `Loads the question file and profile template from the config, checks that every profile field a question maps to exists in the template, and prints the questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		qs, _, err := loadQuestionnaire(cfg)
		if err != nil {
			return err
		}

		for i, q := range qs {
			limit := cfg.Interview.MaxFollowups
			if q.MaxFollowups != nil {
				limit = *q.MaxFollowups
			}
			fmt.Printf("Q%d [%s] %s\n", i+1, q.ID, q.Text)
			fmt.Printf("    relances max: %d", limit)
			if q.SkipRevisit {
				fmt.Print(" · sans reprise")
			}
			if len(q.ProfileFields) > 0 {
				fmt.Printf(" · fiche: %s", strings.Join(q.ProfileFields, ", "))
			}
			fmt.Println()
		}
		fmt.Printf("\n%d questions valides.\n", len(qs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}
