// Package report implements the Reporter component: colored,
// human-readable progress and summary output for cascade rebases and
// merges.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/cascade/state"
)

var (
	_greenColor  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	_yellowColor = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	_redColor    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	_grayColor   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"}
	_cyanColor   = lipgloss.AdaptiveColor{Light: "6", Dark: "14"}

	_successStyle = lipgloss.NewStyle().Foreground(_greenColor).Bold(true)
	_warnStyle    = lipgloss.NewStyle().Foreground(_yellowColor).Bold(true)
	_errorStyle   = lipgloss.NewStyle().Foreground(_redColor).Bold(true)
	_hintStyle    = lipgloss.NewStyle().Foreground(_grayColor)
	_stepStyle    = lipgloss.NewStyle().Foreground(_cyanColor).Bold(true)
)

// Level selects how much a Reporter prints.
type Level int

const (
	// Minimal prints only the final summary.
	Minimal Level = iota
	// Standard prints a line per branch plus the summary (the
	// default).
	Standard
	// Detailed is accepted as a level but prints the same lines as
	// Standard; no parent or fork-point commit is added.
	Detailed
)

// Reporter is the concrete, lipgloss-colored implementation of
// cascade.Reporter.
type Reporter struct {
	w     io.Writer
	level Level
}

// New builds a Reporter that writes to w at the given verbosity
// level.
func New(w io.Writer, level Level) *Reporter {
	return &Reporter{w: w, level: level}
}

var _ cascade.Reporter = (*Reporter)(nil)

// Step announces that branch i of n is about to be processed.
func (r *Reporter) Step(i, n int, branch, parent string) {
	if r.level == Minimal {
		return
	}
	fmt.Fprintf(r.w, "%s %s onto %s\n",
		_stepStyle.Render(fmt.Sprintf("[%d/%d]", i, n)),
		branch, parent)
}

// Done announces the outcome recorded for a branch.
func (r *Reporter) Done(branch string, status state.Status) {
	if r.level == Minimal {
		return
	}
	fmt.Fprintf(r.w, "  %s %s\n", symbolFor(status), branch)
}

// Conflict announces a paused cascade and the recovery instructions
// of §7.
func (r *Reporter) Conflict(branch string) {
	fmt.Fprintf(r.w, "%s %s\n", _errorStyle.Render("error:"),
		fmt.Sprintf("rebase of %s stopped due to a conflict", branch))
	fmt.Fprintln(r.w, _hintStyle.Render("hint: resolve the conflict, then run one of:"))
	fmt.Fprintln(r.w, _hintStyle.Render("  1. git add <files> && git rebase --continue && chain rebase --continue"))
	fmt.Fprintln(r.w, _hintStyle.Render("  2. chain rebase --skip"))
	fmt.Fprintln(r.w, _hintStyle.Render("  3. chain rebase --abort"))
}

// Summary announces the final tally of a completed cascade.
func (r *Reporter) Summary(counts cascade.Counts) {
	fmt.Fprintf(r.w, "%s %d completed, %d skipped, %d squash-reset (of %d)\n",
		_successStyle.Render("done:"),
		counts.Completed, counts.Skipped, counts.SquashReset, counts.Total())
}

// MergeSummary announces the outcome of a completed cascade merge.
func (r *Reporter) MergeSummary(s *cascade.MergeSummary) {
	fmt.Fprintf(r.w, "%s %d merged, %d fast-forwarded, %d skipped\n",
		_successStyle.Render("done:"),
		len(s.Merged), len(s.FastForwards), len(s.Skipped))
}

// Status pretty-prints an in-progress rebase's state: a numbered,
// symbol-prefixed list of branches and which one is currently
// conflicted.
func (r *Reporter) Status(st *state.State) {
	fmt.Fprintf(r.w, "chain %s (%d branches)\n", st.ChainName, len(st.Branches))
	for i, entry := range st.Branches {
		marker := "  "
		if entry.Status == state.Conflict {
			marker = _errorStyle.Render("->")
		}
		fmt.Fprintf(r.w, "%s %s %d/%d %s (onto %s) %s\n",
			marker, symbolFor(entry.Status), i+1, len(st.Branches),
			entry.Name, entry.Parent, string(entry.Status))
	}
}

func symbolFor(status state.Status) string {
	switch status {
	case state.Completed:
		return _successStyle.Render("✓")
	case state.Skipped:
		return _warnStyle.Render("»")
	case state.SquashReset:
		return _warnStyle.Render("⟲")
	case state.Conflict:
		return _errorStyle.Render("✗")
	default:
		return _hintStyle.Render("·")
	}
}
