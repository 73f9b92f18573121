package main

import (
	"context"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainMoveCmd struct {
	Before string `help:"Move immediately before this branch" xor:"target" predictor:"branches"`
	After  string `help:"Move immediately after this branch" xor:"target" predictor:"branches"`
	Chain  string `help:"Re-home to a different chain" xor:"target" predictor:"chains"`
	Root   string `help:"Change the chain's root without altering order" xor:"target" predictor:"branches"`
}

func (*chainMoveCmd) Help() string {
	return text.Dedent(`
		Repositions the currently checked out branch within its chain,
		re-homes it to a different chain, or changes its chain's root.
	`)
}

func (cmd *chainMoveCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	branch, err := repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		return err
	}

	target := chain.MoveTarget{
		Before: cmd.Before,
		After:  cmd.After,
		Chain:  cmd.Chain,
		Root:   cmd.Root,
	}
	if err := store.Move(ctx, branch, target); err != nil {
		return err
	}

	log.Infof("moved %s", branch)
	return nil
}
