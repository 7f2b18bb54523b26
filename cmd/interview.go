package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/export"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/progress"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

var (
	interviewSession   string
	interviewReset     bool
	interviewExportDir string
)

const interviewHelp = `Commandes : /skip passe la question, /finish termine l'entretien, /quit quitte (la session est sauvegardée).`

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an orientation interview in the terminal",
	Long: `Starts or resumes an interview. Answers are typed at the prompt; the session
is saved after every turn, so an interrupted interview resumes with --session.`,
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, res, err := openSession(ctx, iv, st)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Session %s (%s)\n%s\n\n", sess.ID, cfg.Model, interviewHelp)
		reporter := progress.NewReporter()
		reporter.Start("Entretien")
		show(reporter, res)

		for !sess.Done() {
			line, err := (&promptui.Prompt{Label: "Toi"}).Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				fmt.Printf("\nSession sauvegardée. Reprends avec : orientation interview --session %s\n", sess.ID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading answer: %w", err)
			}

			switch strings.TrimSpace(line) {
			case "":
				continue
			case "/quit":
				fmt.Printf("Session sauvegardée. Reprends avec : orientation interview --session %s\n", sess.ID)
				return nil
			case "/help":
				fmt.Println(interviewHelp)
				continue
			case "/skip":
				res, err = iv.Skip(ctx, sess)
			case "/finish":
				res, err = iv.Finish(ctx, sess)
			default:
				res, err = iv.Answer(ctx, sess, line)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(os.Stderr, "Erreur : %v\nTu peux renvoyer ta réponse ou taper /finish.\n", err)
				continue
			}
			show(reporter, res)
		}
		reporter.Finish()

		printSynthesis(sess)
		printUsage(client.Usage())

		if interviewExportDir != "" {
			paths, err := export.WriteAll(interviewExportDir, sess)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Printf("Exporté : %s\n", p)
			}
		}
		return nil
	},
}

// openSession resumes --session when it exists, resetting it first on
// --reset, or starts a new interview.
func openSession(ctx context.Context, iv *interview.Interviewer, st store.Store) (*interview.Session, *interview.TurnResult, error) {
	if interviewSession == "" {
		return iv.Start(ctx, "")
	}

	existing, err := st.Load(ctx, interviewSession)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return iv.Start(ctx, interviewSession)
	case err != nil:
		return nil, nil, err
	}

	if interviewReset {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Effacer la session %s et recommencer", interviewSession),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			return nil, nil, errors.New("reset cancelled")
		}
		if err := st.Delete(ctx, interviewSession); err != nil {
			return nil, nil, err
		}
		return iv.Start(ctx, interviewSession)
	}

	res := &interview.TurnResult{Phase: existing.Phase, Progress: iv.Progress(existing)}
	if last := existing.LastAssistant(); last != "" {
		res.Messages = []string{last}
	}
	if existing.Phase == interview.PhaseFinalizing {
		// A previous finalization failed; retry it.
		fin, err := iv.Finish(ctx, existing)
		if err != nil {
			return nil, nil, err
		}
		res = fin
	}
	return existing, res, nil
}

func show(reporter progress.Reporter, res *interview.TurnResult) {
	for _, m := range res.Messages {
		fmt.Printf("\nConseiller : %s\n", m)
	}
	for _, a := range res.Alerts {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", a)
	}
	reporter.Update(res.Progress, "")
}

func printSynthesis(s *interview.Session) {
	if s.Summary == nil {
		return
	}
	fmt.Println("\n=== Synthèse ===")
	fmt.Print(diagrams.RenderCards(diagrams.Cards(*s.Summary)))
	if s.Recap != nil {
		fmt.Println("\n=== Récapitulatif ===")
		for _, sec := range s.Recap.Sections() {
			fmt.Printf("\n%s\n%s\n", sec.Title, sec.Text)
		}
	}
}

func printUsage(u llm.Usage) {
	if u.Calls == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%d appels au modèle · %d tokens en entrée · %d en sortie · coût estimé $%.4f\n",
		u.Calls, u.InputTokens, u.OutputTokens, u.CostUSD)
	if u.Throttled > 0 {
		fmt.Fprintf(os.Stderr, "%d appels retenus par la limite de débit (%s au total)\n",
			u.Throttled, u.ThrottledFor.Round(time.Second))
	}
}

func init() {
	interviewCmd.Flags().StringVar(&interviewSession, "session", "", "session id to resume (created when unknown)")
	interviewCmd.Flags().BoolVar(&interviewReset, "reset", false, "delete the --session snapshot and start over")
	interviewCmd.Flags().StringVar(&interviewExportDir, "export", "", "write all exports to this directory when the interview ends")
	rootCmd.AddCommand(interviewCmd)
}
