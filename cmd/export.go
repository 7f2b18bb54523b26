package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orientation-agent/internal/export"
)

var (
	exportKind string
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's profile, dialogue, mindmap or recap",
	Long: `Writes the exports of a stored session. Without --kind every available export
is written to --out; with --kind a single export is written to --out, or to
stdout when --out is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := st.Load(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("loading session %s: %w", args[0], err)
		}

		if exportKind == "" {
			paths, err := export.WriteAll(exportOut, sess)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		}

		kind, err := export.ParseKind(exportKind)
		if err != nil {
			return err
		}
		doc, err := export.Render(sess, kind)
		if err != nil {
			return err
		}
		if exportOut == "-" {
			_, err := os.Stdout.Write(doc.Data)
			return err
		}
		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return err
		}
		path := filepath.Join(exportOut, doc.Filename)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportKind, "kind", "k", "", "profile, dialogue, mindmap or recap (default: all)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "export", `output directory, or "-" for stdout with --kind`)
	rootCmd.AddCommand(exportCmd)
}
