package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/orientation-agent/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the interview as MCP tools on stdio",
	Long: `Starts a Model Context Protocol server on stdio. An assistant client can
start interviews, relay the student's answers, finish them and read the
synthesis and exports. Sessions are saved in the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		client, err := createJSONClient(cfg)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		iv, err := newInterviewer(cfg, client, st, log)
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "orientation MCP server started on stdio (provider=%s, store=%s, questions=%d)\n",
			cfg.Provider, cfg.Store.Driver, len(iv.Questions()))

		return mcpserver.NewServer(iv, st, log).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
