package main

import (
	"context"
	"errors"
	"os"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/report"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainRebaseCmd struct {
	Chain          string `help:"Operate on the named chain rather than the active one" predictor:"chains"`
	Step           bool   `short:"s" help:"Rebase at most one branch and stop"`
	IgnoreRoot     bool   `short:"i" help:"Skip rebasing the first branch onto the root"`
	Continue       bool   `xor:"mode" help:"Resume a paused cascade"`
	Skip           bool   `xor:"mode" help:"Skip the conflicted branch and resume"`
	Abort          bool   `xor:"mode" help:"Abandon the cascade and restore every branch"`
	Status         bool   `xor:"mode" help:"Print the state of a paused cascade"`
	CleanupBackups bool   `help:"Delete every member's backup branch if the cascade completes without pausing"`
	SquashedMerge  string `enum:"reset,skip,rebase," default:"" help:"How to handle a branch already squash-merged upstream"`
}

func (*chainRebaseCmd) Help() string {
	return text.Dedent(`
		Rebases every branch in the active chain onto its parent, in
		order, stopping at the first conflict. A conflict leaves a
		resumable state behind: re-run with --continue, --skip, or
		--abort once it's resolved (or abandoned).
	`)
}

func (cmd *chainRebaseCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	reporter := report.New(os.Stdout, report.Standard)
	engine := cascade.NewRebaseEngine(repo, store, reporter, log)

	switch {
	case cmd.Continue:
		return engine.Continue(ctx)
	case cmd.Skip:
		return engine.Skip(ctx)
	case cmd.Abort:
		return engine.Abort(ctx)
	case cmd.Status:
		st, err := engine.Status(ctx)
		if err != nil {
			return err
		}
		reporter.Status(st)
		return nil
	}

	mode, err := cascade.ParseSquashedMergeMode(cmd.SquashedMerge)
	if err != nil {
		return err
	}
	opts := cascade.RebaseOptions{
		ChainName:      cmd.Chain,
		IgnoreRoot:     cmd.IgnoreRoot,
		SquashedMerge:  mode,
		CleanupBackups: cmd.CleanupBackups,
	}

	if cmd.Step {
		return engine.Step(ctx, opts)
	}

	err = engine.Run(ctx, opts)
	var conflict *cascade.ErrConflict
	if errors.As(err, &conflict) {
		// Already reported by the Reporter; surface it as a non-zero
		// exit without an additional generic error line.
		return err
	}
	return err
}
