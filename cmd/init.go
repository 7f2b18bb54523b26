package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orientation-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration with an interactive wizard",
	Long:  `Runs an interactive wizard (provider, model, follow-up policy, session store) and writes .orientation.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
