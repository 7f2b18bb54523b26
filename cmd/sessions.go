package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored interview sessions",
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

		metas, err := st.List(context.Background())
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("Aucune session.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPHASE\tQUESTIONS TRAITÉES\tMIS À JOUR")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.ID, m.Phase, m.Index, m.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
