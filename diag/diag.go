// Package diag centralises run diagnostics. Per spec.md §9 REDESIGN FLAGS
// ("Mutable global logging"), there is no process-wide logger: callers hand
// a Sink into the mapper/normaliser for this run only, and accumulate
// per-event/per-frame outcomes into a Summary that is rendered once at the
// end (spec.md §7).
package diag

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives debug- and info-level diagnostics from a single run. It is
// never shared across concurrent runs; the caller constructs one per
// invocation.
type Sink interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
}

// NopSink discards everything. Useful for tests and library callers who do
// not want console output.
type NopSink struct{}

func (NopSink) Debugf(string, ...any) {}
func (NopSink) Infof(string, ...any)  {}

// PrintSink writes Infof lines to stdout immediately. Debugf lines are
// recorded in an internal slice and, when Verbose is set, also printed to
// stdout immediately with a "debug:" prefix; nothing prints the recorded
// lines afterwards. Mirrors the teacher's inline
// fmt.Printf("[MIDI] ...") progress style but routed through one object
// instead of being sprinkled through the generator.
type PrintSink struct {
	Verbose bool
	debug   []string
}

func (p *PrintSink) Debugf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	p.debug = append(p.debug, line)
	if p.Verbose {
		fmt.Println("debug:", line)
	}
}

func (p *PrintSink) Infof(format string, args ...any) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Summary accumulates the per-event and per-frame outcomes spec.md §7
// requires be surfaced in a single diagnostic line at the end of a run
// ("3 notes dropped, 1 chord unplayable"). The fatal error classes
// (ConfigInvalid, InputMalformed) are not tracked here — they abort the run
// before a Summary is meaningful.
type Summary struct {
	NotesDropped    int
	ChordsUnplayable int
	FramesTotal     int
}

// Line renders the summary the way spec.md §7 phrases it.
func (s Summary) Line() string {
	return fmt.Sprintf("%d notes dropped, %d chord%s unplayable (of %d frames)",
		s.NotesDropped, s.ChordsUnplayable, plural(s.ChordsUnplayable), s.FramesTotal)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

var summaryStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#888888")).
	Italic(true)

// Render returns a styled one-line summary suitable for terminal output.
func (s Summary) Render() string {
	return summaryStyle.Render(s.Line())
}
