package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter shows how far the interview has progressed, in percent.
type Reporter interface {
	Start(label string)
	Update(percent int, message string)
	Finish()
}

// NewReporter returns a TerminalReporter writing to stderr, or a CIReporter
// when running non-interactively (CI set, or ORIENTATION_PLAIN_PROGRESS).
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("ORIENTATION_PLAIN_PROGRESS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Out: os.Stderr}
}

// TerminalReporter draws a progress bar from 0 to 100.
type TerminalReporter struct {
	Out io.Writer
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(label string) {
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
}

func (r *TerminalReporter) Update(percent int, message string) {
	if r.bar == nil {
		return
	}
	if message != "" {
		r.bar.Describe(message)
	}
	_ = r.bar.Set(clamp(percent))
	// Keep the bar on its own line, above the next prompt.
	fmt.Fprintln(r.Out)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		fmt.Fprintln(r.Out)
	}
}

// CIReporter prints one line per update, suitable for logs and pipes.
type CIReporter struct {
	Out   io.Writer
	label string
	last  int
}

func (r *CIReporter) Start(label string) {
	r.label = label
	r.last = -1
}

func (r *CIReporter) Update(percent int, message string) {
	percent = clamp(percent)
	if percent == r.last && message == "" {
		return
	}
	r.last = percent
	if message == "" {
		message = r.label
	}
	fmt.Fprintf(r.Out, "[%3d%%] %s\n", percent, message)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.Out, "%s terminé\n", r.label)
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
