package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/cascade/state"
	"go.chain.dev/chain/internal/report"
)

func TestReporterMinimalSuppressesStepsAndDone(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := report.New(&buf, report.Minimal)

	r.Step(1, 2, "f1", "main")
	r.Done("f1", state.Completed)
	assert.Empty(t, buf.String(), "Minimal level prints nothing until the summary")

	r.Summary(cascade.Counts{Completed: 1})
	assert.Contains(t, buf.String(), "1 completed")
}

func TestReporterStandardPrintsStepsAndDone(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := report.New(&buf, report.Standard)

	r.Step(1, 2, "f1", "main")
	r.Done("f1", state.Completed)

	out := buf.String()
	assert.Contains(t, out, "f1")
	assert.Contains(t, out, "main")
}

func TestReporterStatusMarksConflictedEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := report.New(&buf, report.Standard)

	r.Status(&state.State{
		ChainName: "feature",
		Branches: []state.BranchEntry{
			{Name: "f1", Parent: "main", Status: state.Completed},
			{Name: "f2", Parent: "f1", Status: state.Conflict},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "feature")
	assert.Contains(t, out, "f1")
	assert.Contains(t, out, "f2")
	assert.Contains(t, out, "->", "the conflicted entry is marked")
}
