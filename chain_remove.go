package main

import (
	"context"

	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainRemoveCmd struct {
	Chain string `help:"Remove an entire chain by name instead of a single branch" predictor:"chains"`
}

func (*chainRemoveCmd) Help() string {
	return text.Dedent(`
		Removes the currently checked out branch from its chain. With
		--chain, removes an entire chain and every member's metadata,
		without deleting the branches themselves.
	`)
}

func (cmd *chainRemoveCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	if cmd.Chain != "" {
		if err := store.RemoveChain(ctx, cmd.Chain); err != nil {
			return err
		}
		log.Infof("removed chain %s", cmd.Chain)
		return nil
	}

	branch, err := repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if err := store.Remove(ctx, branch); err != nil {
		return err
	}

	log.Infof("removed %s from its chain", branch)
	return nil
}
