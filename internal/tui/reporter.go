package tui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"buildprobe/internal/rustc"
)

// ProbeReporter adapts bubbletea message sending to rustc.Reporter, turning
// phase notifications into row updates of a probe model.
type ProbeReporter struct {
	send    func(tea.Msg)
	now     func() time.Time
	started map[rustc.Phase]time.Time
}

// NewProbeReporter constructs a reporter that delivers updates through send.
func NewProbeReporter(send func(tea.Msg)) *ProbeReporter {
	return &ProbeReporter{
		send:    send,
		now:     time.Now,
		started: make(map[rustc.Phase]time.Time),
	}
}

// PhaseStarted implements rustc.Reporter.
func (r *ProbeReporter) PhaseStarted(phase rustc.Phase) {
	r.started[phase] = r.now()
	r.send(RowUpdateMsg{
		Key:    string(phase),
		Fields: map[string]string{ColStatus: StatusRunning},
	})
}

// PhaseFinished implements rustc.Reporter.
func (r *ProbeReporter) PhaseFinished(phase rustc.Phase, detail string, err error) {
	status, text := phaseOutcome(phase, detail, err)
	fields := map[string]string{ColStatus: status, ColDetail: text}
	if start, ok := r.started[phase]; ok {
		fields[ColTime] = formatElapsed(r.now().Sub(start))
	}
	r.send(RowUpdateMsg{Key: string(phase), Fields: fields})
}

// LineReporter writes one line per finished phase. It serves terminals that
// cannot host the interactive view.
type LineReporter struct {
	w       io.Writer
	now     func() time.Time
	started map[rustc.Phase]time.Time
}

// NewLineReporter returns a reporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, now: time.Now, started: make(map[rustc.Phase]time.Time)}
}

// PhaseStarted implements rustc.Reporter.
func (r *LineReporter) PhaseStarted(phase rustc.Phase) {
	r.started[phase] = r.now()
}

// PhaseFinished implements rustc.Reporter.
func (r *LineReporter) PhaseFinished(phase rustc.Phase, detail string, err error) {
	status, text := phaseOutcome(phase, detail, err)
	elapsed := ""
	if start, ok := r.started[phase]; ok {
		elapsed = formatElapsed(r.now().Sub(start))
	}
	fmt.Fprintf(r.w, "%-8s  %s  %s (%s)\n",
		phase, StatusStyle(status).Render(pad(status, 6)), NonEmptyOrDash(text), elapsed)
}

func phaseOutcome(phase rustc.Phase, detail string, err error) (string, string) {
	if err != nil {
		return StatusError, err.Error()
	}
	if phase == rustc.PhaseValidate && detail == "no_std" {
		return StatusNoStd, "freestanding only"
	}
	return StatusOK, detail
}

// formatElapsed formats a duration for the TIME column.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
