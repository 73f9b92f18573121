package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainPushCmd struct {
	Chain  string `help:"Operate on the named chain rather than the active one" predictor:"chains"`
	Remote string `help:"Remote to push to" default:"origin" predictor:"remotes"`
	Force  bool   `help:"Force-push with lease instead of a plain push"`
}

func (*chainPushCmd) Help() string {
	return text.Dedent(`
		Pushes every member of a chain to the remote, in chain order.
	`)
}

func (cmd *chainPushCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	chainName, err := store.ResolveChainName(ctx, cmd.Chain)
	if err != nil {
		return err
	}
	c, err := store.Get(ctx, chainName)
	if err != nil {
		return err
	}

	if err := ops.Push(ctx, repo.Worktree(), c, cmd.Remote, cmd.Force); err != nil {
		return err
	}

	log.Infof("pushed chain %s", c.Name)
	return nil
}
