package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainPruneCmd struct {
	Chain string `help:"Operate on the named chain rather than the active one" predictor:"chains"`
	Dry   bool   `help:"Report merged branches without removing them from the chain"`
}

func (*chainPruneCmd) Help() string {
	return text.Dedent(`
		Reports members of a chain already merged into its root, and
		removes their chain metadata. The branches themselves are
		left untouched; delete them separately if desired.
	`)
}

func (cmd *chainPruneCmd) Run(ctx context.Context, log *silog.Logger) error {
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

	merged := ops.Prune(ctx, repo, c)
	if len(merged) == 0 {
		log.Infof("nothing to prune in chain %s", c.Name)
		return nil
	}

	for _, branch := range merged {
		log.Infof("%s is merged into %s", branch, c.Root)
		if cmd.Dry {
			continue
		}
		if err := store.Remove(ctx, branch); err != nil {
			return err
		}
	}

	return nil
}
