package cascade

import "go.chain.dev/chain/internal/cascade/state"

// Reporter receives progress notifications from a running cascade.
// internal/report provides the concrete, lipgloss-colored
// implementation; engines depend only on this interface so that tests
// can supply a silent one.
type Reporter interface {
	// Step announces that branch i of n, named branch, is about to be
	// processed onto parent.
	Step(i, n int, branch, parent string)

	// Done announces the outcome recorded for a branch once its step
	// concludes.
	Done(branch string, status state.Status)

	// Conflict announces that the cascade has paused on a conflict
	// and prints the recovery instructions from §7.
	Conflict(branch string)

	// Summary announces the final tally of a completed cascade.
	Summary(counts Counts)
}

// Counts tallies branch outcomes at the end of a cascade run.
type Counts struct {
	Completed   int
	Skipped     int
	SquashReset int
}

// Total returns the number of branches the cascade processed.
func (c Counts) Total() int { return c.Completed + c.Skipped + c.SquashReset }

// NopReporter discards every notification. Useful in tests and as a
// safe default when no Reporter is supplied.
type NopReporter struct{}

func (NopReporter) Step(int, int, string, string) {}
func (NopReporter) Done(string, state.Status)     {}
func (NopReporter) Conflict(string)               {}
func (NopReporter) Summary(Counts)                {}

var _ Reporter = NopReporter{}
