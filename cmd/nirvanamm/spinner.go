package nirvanamm

import (
	"io"
	"os"
	"time"

	"github.com/nirvanamm/nirvanamm/pkg/session"
	"github.com/nirvanamm/nirvanamm/pkg/ui"
	"github.com/pterm/pterm"
)

// pollInterval is how often a running apply is checked for a new phase.
const pollInterval = 100 * time.Millisecond

// progress shows a spinner on a terminal and does nothing elsewhere.
type progress struct {
	spinner *pterm.SpinnerPrinter
}

func newProgress(o *globalOptions, w io.Writer, text string) *progress {
	format, err := o.parsedFormat()
	if err != nil || format == ui.FormatJSON || format == ui.FormatText {
		return &progress{}
	}
	f, ok := w.(*os.File)
	if !ok || ui.DetectFormat(f) != ui.FormatTerminal {
		return &progress{}
	}
	spinner, err := pterm.DefaultSpinner.WithWriter(w).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return &progress{}
	}
	return &progress{spinner: spinner}
}

func (p *progress) update(text string) {
	if p.spinner != nil {
		p.spinner.UpdateText(text)
	}
}

func (p *progress) stop() {
	if p.spinner != nil {
		_ = p.spinner.Stop()
	}
}

// phaseText names what a running task is doing.
func phaseText(state session.State) string {
	switch state {
	case session.PreparingOrigin:
		return MsgSpinPrepare
	case session.Validating:
		return "Validating selection"
	case session.Applying:
		return MsgSpinApplying
	default:
		return state.String()
	}
}

// await waits for a submitted task, keeping the spinner on its phase.
func await(results <-chan session.Result, state func() session.State, p *progress) session.Result {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	last := session.Idle
	for {
		select {
		case res := <-results:
			return res
		case <-ticker.C:
			if current := state(); current != last {
				last = current
				p.update(phaseText(current))
			}
		}
	}
}
