package main

import (
	"context"
	"os"

	"go.chain.dev/chain/internal/cascade"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/report"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainMergeCmd struct {
	Chain      string `help:"Operate on the named chain rather than the active one" predictor:"chains"`
	IgnoreRoot bool   `short:"i" help:"Skip merging the root into the first branch"`
	Stay       bool   `help:"Stay on the last branch processed instead of returning to the original branch"`

	Simple      bool `help:"Disable the already-contains-parent check and squash-merge detection; merge each branch's parent into it unconditionally"`
	ForkPoint   bool `xor:"forkpoint" help:"Skip the merge for a branch that already contains its parent (default); no merge-base --fork-point lookup is made" default:"true"`
	NoForkPoint bool `xor:"forkpoint" help:"Run the merge even for a branch that already contains its parent"`

	SquashedMerge string `enum:"reset,skip,merge," default:"" help:"How to handle a branch already squash-merged upstream"`

	FF     bool `xor:"ff" help:"Allow fast-forward merges"`
	NoFF   bool `xor:"ff" help:"Always create a merge commit (default)"`
	FFOnly bool `xor:"ff" help:"Refuse to merge unless it can fast-forward"`
	Squash bool `help:"Squash each merge instead of recording merge commits"`

	Strategy       string   `help:"Merge strategy to pass to git merge" predictor:"mergeStrategies"`
	StrategyOption []string `help:"Strategy-specific option to pass to git merge" name:"strategy-option"`

	ReportLevel  string `enum:"minimal,standard,detailed," default:"" help:"Verbosity of the cascade report"`
	NoReport     bool   `help:"Suppress the cascade report"`
	Detailed     bool   `name:"detailed-report" help:"Shorthand for --report-level=detailed"`
}

func (*chainMergeCmd) Help() string {
	return text.Dedent(`
		Merges every branch in the active chain into its child, in
		order, creating a merge commit each time unless --ff or
		--ff-only allows a fast-forward. Unlike rebase, a conflict
		leaves ordinary Git conflict markers in the worktree instead
		of a resumable state file: resolve and "git merge --continue"
		(or re-run "chain merge" once resolved).
	`)
}

func (cmd *chainMergeCmd) mergeStrategy() (git.MergeStrategy, error) {
	if cmd.Strategy == "" {
		return "", nil
	}
	return git.MergeStrategy(cmd.Strategy), nil
}

func (cmd *chainMergeCmd) reportLevel() report.Level {
	switch {
	case cmd.NoReport:
		return report.Minimal
	case cmd.Detailed:
		return report.Detailed
	case cmd.ReportLevel == "detailed":
		return report.Detailed
	case cmd.ReportLevel == "minimal":
		return report.Minimal
	default:
		return report.Standard
	}
}

func (cmd *chainMergeCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	strategy, err := cmd.mergeStrategy()
	if err != nil {
		return err
	}

	mode, err := cascade.ParseSquashedMergeMode(cmd.SquashedMerge)
	if err != nil {
		return err
	}

	engine := cascade.NewMergeEngine(repo, store, log)
	summary, err := engine.Run(ctx, cascade.MergeOptions{
		ChainName:       cmd.Chain,
		IgnoreRoot:      cmd.IgnoreRoot,
		Stay:            cmd.Stay,
		Simple:          cmd.Simple,
		NoFastPath:      cmd.NoForkPoint,
		SquashedMerge:   mode,
		FF:              cmd.FF,
		NoFF:            cmd.NoFF,
		FFOnly:          cmd.FFOnly,
		Squash:          cmd.Squash,
		Strategy:        strategy,
		StrategyOptions: cmd.StrategyOption,
	})
	if err != nil {
		return err
	}

	if !cmd.NoReport {
		reporter := report.New(os.Stdout, cmd.reportLevel())
		reporter.MergeSummary(summary)
	}

	return nil
}
