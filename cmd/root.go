package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orientation-agent/internal/config"
)

var (
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orientation",
	Short: "Conversational study-abroad orientation interviewer",
	Long: `Orientation runs a guided interview with a student about a study-abroad
project. A language model judges each answer, asks follow-up questions when
an answer is incomplete, fills a structured profile, and ends with a summary,
a mindmap and an encouraging recap.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".orientation.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
